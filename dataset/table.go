// Package dataset provides the row-oriented tabular input consumed by the
// model fitting API.
//
// A Table holds named, ordered columns of two kinds: float columns for
// numeric variables (response, time, covariates) and label columns for
// categorical identifiers (subject or cluster IDs). Columns are stored
// column-major; rows are addressed by index.
//
// Building a table:
//
//	data := dataset.New()
//	data.AddLabels("id", []string{"s1", "s1", "s2", "s2"})
//	data.AddFloats("week", []float64{0, 1, 0, 1})
//	data.AddFloats("score", []float64{10.2, 12.1, 9.8, 11.5})
//
// A Table is mutable while being built and treated as read-only once handed
// to Fit; nothing in this module mutates a table after fitting.
package dataset

import (
	"fmt"
	"strconv"

	"github.com/statmix/randcoef/errs"
)

type columnKind uint8

const (
	kindFloat columnKind = iota
	kindLabel
)

type column struct {
	name   string
	kind   columnKind
	floats []float64
	labels []string
}

func (c *column) length() int {
	if c.kind == kindFloat {
		return len(c.floats)
	}

	return len(c.labels)
}

// Table is a named-column table with homogeneous column lengths.
type Table struct {
	columns []*column
	index   map[string]int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the number of rows, zero for an empty table.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}

	return t.columns[0].length()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}

	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]

	return ok
}

// IsNumeric reports whether the named column exists and holds floats.
func (t *Table) IsNumeric(name string) bool {
	i, ok := t.index[name]
	if !ok {
		return false
	}

	return t.columns[i].kind == kindFloat
}

func (t *Table) addColumn(c *column) error {
	if c.name == "" {
		return fmt.Errorf("%w: column name must not be empty", errs.ErrInvalidArgument)
	}
	if _, exists := t.index[c.name]; exists {
		return fmt.Errorf("%w: %q", errs.ErrColumnExists, c.name)
	}
	if len(t.columns) > 0 && c.length() != t.NumRows() {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows",
			errs.ErrColumnLength, c.name, c.length(), t.NumRows())
	}

	t.index[c.name] = len(t.columns)
	t.columns = append(t.columns, c)

	return nil
}

// AddFloats appends a numeric column. The values slice is retained, not
// copied; callers must not modify it afterwards.
func (t *Table) AddFloats(name string, values []float64) error {
	return t.addColumn(&column{name: name, kind: kindFloat, floats: values})
}

// AddLabels appends a categorical label column. The values slice is
// retained, not copied; callers must not modify it afterwards.
func (t *Table) AddLabels(name string, values []string) error {
	return t.addColumn(&column{name: name, kind: kindLabel, labels: values})
}

// Floats returns the values of a numeric column.
func (t *Table) Floats(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", errs.ErrInvalidArgument, name)
	}
	c := t.columns[i]
	if c.kind != kindFloat {
		return nil, fmt.Errorf("%w: column %q is not numeric", errs.ErrInvalidArgument, name)
	}

	return c.floats, nil
}

// Labels returns the values of the named column as strings. Label columns
// return their labels directly; float columns are formatted with the
// shortest representation that round-trips.
func (t *Table) Labels(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", errs.ErrInvalidArgument, name)
	}
	c := t.columns[i]
	if c.kind == kindLabel {
		return c.labels, nil
	}

	out := make([]string, len(c.floats))
	for j, v := range c.floats {
		out[j] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return out, nil
}
