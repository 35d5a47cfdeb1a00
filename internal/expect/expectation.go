// Package expect holds the declarative expectations a check list is built
// from and an in-process engine that evaluates them against a dataset.
package expect

import (
	"fmt"
	"strings"
)

// Expectation is one declarative assertion. The set of variants is closed.
type Expectation interface {
	Describe() string
	expectation()
}

// ColumnExists passes when the dataset has the column.
type ColumnExists struct {
	Column string
}

// NotNull flags every null value of Column.
type NotNull struct {
	Column string
}

// Unique flags every row whose non-null value occurs more than once.
type Unique struct {
	Column string
}

// Between flags numeric values outside [Min, Max]. A nil bound is open.
type Between struct {
	Column string
	Min    *float64
	Max    *float64
}

// InSet flags values not in Allowed.
type InSet struct {
	Column  string
	Allowed []string
}

// LengthBetween flags values whose character length is outside [Min, Max].
type LengthBetween struct {
	Column string
	Min    int
	Max    int
}

// MinRowCount passes when the dataset has at least N rows.
type MinRowCount struct {
	N int64
}

func (ColumnExists) expectation()  {}
func (NotNull) expectation()       {}
func (Unique) expectation()        {}
func (Between) expectation()       {}
func (InSet) expectation()         {}
func (LengthBetween) expectation() {}
func (MinRowCount) expectation()   {}

func (e ColumnExists) Describe() string { return fmt.Sprintf("column %s exists", e.Column) }
func (e NotNull) Describe() string      { return fmt.Sprintf("%s is not null", e.Column) }
func (e Unique) Describe() string       { return fmt.Sprintf("%s is unique", e.Column) }

func (e Between) Describe() string {
	lo, hi := "-inf", "+inf"
	if e.Min != nil {
		lo = formatFloat(*e.Min)
	}
	if e.Max != nil {
		hi = formatFloat(*e.Max)
	}
	return fmt.Sprintf("%s between %s and %s", e.Column, lo, hi)
}

func (e InSet) Describe() string {
	return fmt.Sprintf("%s in {%s}", e.Column, strings.Join(e.Allowed, ", "))
}

func (e LengthBetween) Describe() string {
	return fmt.Sprintf("length of %s between %d and %d", e.Column, e.Min, e.Max)
}

func (e MinRowCount) Describe() string { return fmt.Sprintf("row count >= %d", e.N) }

// AtLeast builds a Between with only a lower bound.
func AtLeast(column string, min float64) Between {
	return Between{Column: column, Min: &min}
}

// InRange builds a Between with both bounds.
func InRange(column string, min, max float64) Between {
	return Between{Column: column, Min: &min, Max: &max}
}
