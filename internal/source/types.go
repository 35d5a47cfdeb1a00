package source

import "context"

// Dataset is a fully materialized tabular snapshot. Rows are aligned with
// Columns; a nil cell is a null value.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// Fetcher retrieves a snapshot from one data source. Connection and query
// failures are returned as errors.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (*Dataset, error)
}

func (d *Dataset) RowCount() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Rows))
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column and whether it exists.
func (d *Dataset) Column(name string) ([]any, bool) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]any, len(d.Rows))
	for i, row := range d.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}
