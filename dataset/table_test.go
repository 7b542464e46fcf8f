package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statmix/randcoef/errs"
)

func buildTable(t *testing.T) *Table {
	t.Helper()

	tbl := New()
	require.NoError(t, tbl.AddLabels("id", []string{"s1", "s1", "s2", "s2", "s1"}))
	require.NoError(t, tbl.AddFloats("week", []float64{0, 1, 0, 1, 2}))
	require.NoError(t, tbl.AddFloats("score", []float64{10, 12, 9, 11, 13}))

	return tbl
}

func TestTableBasics(t *testing.T) {
	tbl := buildTable(t)

	assert.Equal(t, 5, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumColumns())
	assert.Equal(t, []string{"id", "week", "score"}, tbl.ColumnNames())
	assert.True(t, tbl.HasColumn("week"))
	assert.False(t, tbl.HasColumn("missing"))
	assert.True(t, tbl.IsNumeric("week"))
	assert.False(t, tbl.IsNumeric("id"))
	assert.False(t, tbl.IsNumeric("missing"))
}

func TestTableFloats(t *testing.T) {
	tbl := buildTable(t)

	week, err := tbl.Floats("week")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 1, 2}, week)

	_, err = tbl.Floats("id")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = tbl.Floats("missing")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestTableLabels(t *testing.T) {
	tbl := buildTable(t)

	ids, err := tbl.Labels("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s1", "s2", "s2", "s1"}, ids)

	// Float columns format into labels for grouping purposes.
	weeks, err := tbl.Labels("week")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "0", "1", "2"}, weeks)
}

func TestTableColumnErrors(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddFloats("x", []float64{1, 2, 3}))

	err := tbl.AddFloats("x", []float64{4, 5, 6})
	assert.ErrorIs(t, err, errs.ErrColumnExists)

	err = tbl.AddFloats("y", []float64{1, 2})
	assert.ErrorIs(t, err, errs.ErrColumnLength)

	err = tbl.AddLabels("", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestEmptyTable(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.NumRows())
	assert.Empty(t, tbl.ColumnNames())
}

func TestGroupBy(t *testing.T) {
	tbl := buildTable(t)

	idx, err := tbl.GroupBy("id")
	require.NoError(t, err)

	require.Equal(t, 2, idx.NumGroups())
	assert.Equal(t, "id", idx.Column)

	// First-appearance order with all member rows.
	assert.Equal(t, "s1", idx.Groups[0].Label)
	assert.Equal(t, []int{0, 1, 4}, idx.Groups[0].Rows)
	assert.Equal(t, "s2", idx.Groups[1].Label)
	assert.Equal(t, []int{2, 3}, idx.Groups[1].Rows)

	g, ok := idx.Lookup("s2")
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, g.Rows)

	_, ok = idx.Lookup("s3")
	assert.False(t, ok)
}

func TestGroupByNumericColumn(t *testing.T) {
	tbl := buildTable(t)

	idx, err := tbl.GroupBy("week")
	require.NoError(t, err)
	require.Equal(t, 3, idx.NumGroups())
	assert.Equal(t, "0", idx.Groups[0].Label)
	assert.Equal(t, []int{0, 2}, idx.Groups[0].Rows)
}

func TestGroupByMissingColumn(t *testing.T) {
	tbl := buildTable(t)

	_, err := tbl.GroupBy("missing")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}
