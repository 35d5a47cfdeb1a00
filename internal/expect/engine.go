package expect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexanderjulianmartinez/dq-watch/internal/source"
)

var ErrColumnNotFound = errors.New("column not found")

// Outcome is what an engine reports for one expectation. Observed describes
// the measured value for table-level expectations that have no unexpected list.
type Outcome struct {
	Success         bool
	UnexpectedCount int64
	UnexpectedList  []any
	Observed        string
}

// Engine evaluates expectations against a dataset.
type Engine interface {
	Evaluate(ds *source.Dataset, e Expectation) (Outcome, error)
}

// Evaluator is the built-in Engine.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

func (ev *Evaluator) Evaluate(ds *source.Dataset, e Expectation) (Outcome, error) {
	if ds == nil {
		return Outcome{}, errors.New("nil dataset")
	}

	switch x := e.(type) {
	case ColumnExists:
		if ds.ColumnIndex(x.Column) >= 0 {
			return Outcome{Success: true}, nil
		}
		return Outcome{Observed: fmt.Sprintf("column %s missing; columns: [%s]", x.Column, strings.Join(ds.Columns, ", "))}, nil
	case MinRowCount:
		n := ds.RowCount()
		if n >= x.N {
			return Outcome{Success: true}, nil
		}
		return Outcome{Observed: fmt.Sprintf("observed row count %d < %d", n, x.N)}, nil
	case NotNull:
		return mapColumn(ds, x.Column, true, func(v any) (bool, error) {
			return v != nil, nil
		})
	case Unique:
		return unique(ds, x.Column)
	case Between:
		return mapColumn(ds, x.Column, false, func(v any) (bool, error) {
			f, ok := toFloat(v)
			if !ok {
				return false, fmt.Errorf("column %s: value %v is not numeric", x.Column, v)
			}
			if x.Min != nil && f < *x.Min {
				return false, nil
			}
			if x.Max != nil && f > *x.Max {
				return false, nil
			}
			return true, nil
		})
	case InSet:
		allowed := make(map[string]struct{}, len(x.Allowed))
		for _, a := range x.Allowed {
			allowed[a] = struct{}{}
		}
		return mapColumn(ds, x.Column, false, func(v any) (bool, error) {
			_, ok := allowed[toString(v)]
			return ok, nil
		})
	case LengthBetween:
		return mapColumn(ds, x.Column, false, func(v any) (bool, error) {
			n := utf8.RuneCountInString(toString(v))
			return n >= x.Min && n <= x.Max, nil
		})
	default:
		return Outcome{}, fmt.Errorf("unsupported expectation %T", e)
	}
}

// mapColumn applies a per-value predicate. Nulls are skipped unless
// includeNulls is set.
func mapColumn(ds *source.Dataset, column string, includeNulls bool, ok func(any) (bool, error)) (Outcome, error) {
	values, found := ds.Column(column)
	if !found {
		return Outcome{}, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	out := Outcome{}
	for _, v := range values {
		if v == nil && !includeNulls {
			continue
		}
		pass, err := ok(v)
		if err != nil {
			return Outcome{}, err
		}
		if !pass {
			out.UnexpectedCount++
			out.UnexpectedList = append(out.UnexpectedList, v)
		}
	}
	out.Success = out.UnexpectedCount == 0
	return out, nil
}

func unique(ds *source.Dataset, column string) (Outcome, error) {
	values, found := ds.Column(column)
	if !found {
		return Outcome{}, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	counts := map[string]int{}
	for _, v := range values {
		if v != nil {
			counts[uniqueKey(v)]++
		}
	}

	out := Outcome{}
	for _, v := range values {
		if v != nil && counts[uniqueKey(v)] > 1 {
			out.UnexpectedCount++
			out.UnexpectedList = append(out.UnexpectedList, v)
		}
	}
	out.Success = out.UnexpectedCount == 0
	return out, nil
}

func uniqueKey(v any) string {
	if f, ok := toFloat(v); ok {
		if _, isString := v.(string); !isString {
			return "n:" + formatFloat(f)
		}
	}
	return "s:" + toString(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatValues renders an unexpected-value sample as [v1, v2, ...] with
// strings quoted and nulls as null.
func FormatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
			parts[i] = "null"
		case string:
			parts[i] = strconv.Quote(t)
		default:
			parts[i] = toString(t)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
