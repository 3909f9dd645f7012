package assay

import (
	"errors"
	"math"
	"testing"

	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func mustTable(t *testing.T, nrow int, cols ...*table.Column) *table.Table {
	tab, err := table.New(nrow, cols...)
	require.NoError(t, err)
	return tab
}

func TestNewShapeChecks(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}

	_, err := New([]string{"a"}, []string{"s1", "s2"}, rows, nil, nil)
	var shape *errs.ShapeMismatchError
	require.True(t, errors.As(err, &shape), "row count: %v", err)

	_, err = New([]string{"a", "b"}, []string{"s1"}, rows, nil, nil)
	require.True(t, errors.As(err, &shape), "column count: %v", err)

	rd := mustTable(t, 3, table.StringColumn("x", []string{"1", "2", "3"}))
	_, err = New([]string{"a", "b"}, []string{"s1", "s2"}, rows, rd, nil)
	require.True(t, errors.As(err, &shape), "row metadata: %v", err)

	cd := mustTable(t, 1, table.StringColumn("group", []string{"ctrl"}))
	_, err = New([]string{"a", "b"}, []string{"s1", "s2"}, rows, nil, cd)
	require.True(t, errors.As(err, &shape), "column metadata: %v", err)
}

func TestNewDuplicateIDs(t *testing.T) {
	_, err := New([]string{"a", "a"}, []string{"s1"}, [][]float64{{1}, {2}}, nil, nil)
	var dup *errs.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "row", dup.Kind)
}

func TestSubset(t *testing.T) {
	rd := mustTable(t, 3, table.StringColumn("protein", []string{"P1", "P2", "P3"}))
	a, err := New([]string{"a", "b", "c"}, []string{"s1", "s2"}, [][]float64{{1, 2}, {3, 4}, {5, 6}}, rd, nil)
	require.NoError(t, err)

	sub := a.Subset([]int{2, 0})
	assert.Equal(t, []string{"c", "a"}, sub.RowIDs())
	assert.Equal(t, []float64{5, 6}, sub.Row(0))
	assert.Equal(t, []float64{6, 2}, sub.Col(1))
	i, ok := sub.RowIndex("a")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	c, _ := sub.RowData().Column("protein")
	assert.Equal(t, "P3", c.Key(0))

	empty := a.Subset(nil)
	assert.Equal(t, 0, empty.NRow())
	assert.Nil(t, empty.Matrix())
}

func TestWithValues(t *testing.T) {
	a, err := New([]string{"a", "b"}, []string{"s1", "s2"}, [][]float64{{1, 2}, {3, 4}}, nil, nil)
	require.NoError(t, err)

	m := a.Matrix()
	m.Scale(2, m)
	doubled, err := a.WithValues(m)
	require.NoError(t, err)
	assert.Equal(t, 8.0, doubled.At(1, 1))
	assert.Equal(t, 4.0, a.At(1, 1))

	_, err = a.WithValues(mat.NewDense(1, 2, []float64{1, 2}))
	var shape *errs.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
}

func TestColumnSummaries(t *testing.T) {
	nan := math.NaN()
	a, err := New([]string{"a", "b", "c"}, []string{"s1", "s2"}, [][]float64{{1, nan}, {2, nan}, {3, nan}}, nil, nil)
	require.NoError(t, err)

	s := a.ColumnSummaries()
	require.Len(t, s, 2)
	assert.Equal(t, 3, s[0].N)
	assert.InDelta(t, 2.0, s[0].Mean, 1e-12)
	assert.Equal(t, 1.0, s[0].Min)
	assert.Equal(t, 3.0, s[0].Max)
	assert.Equal(t, 3, s[1].Missing)
	assert.True(t, math.IsNaN(s[1].Mean))
	assert.Equal(t, 3, a.CountNaN())
}
