package table

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/carbocation/qfeatures/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestInferColumn(t *testing.T) {
	for _, v := range []struct {
		raw  []string
		kind Kind
	}{
		{[]string{"1", "2", "NA"}, KindInt},
		{[]string{"1.5", "2", ""}, KindFloat},
		{[]string{"TRUE", "false", "NA"}, KindBool},
		{[]string{"2020-03-01", "2021-12-31"}, KindTime},
		{[]string{"P12345", "Q99999"}, KindString},
		{[]string{"NA", ""}, KindString},
	} {
		c := InferColumn("x", v.raw)
		if c.Kind() != v.kind {
			t.Errorf("%v: got kind %s, expected %s", v.raw, c.Kind(), v.kind)
		}
		if c.Len() != len(v.raw) {
			t.Errorf("%v: got length %d", v.raw, c.Len())
		}
	}
}

func TestInferColumnNulls(t *testing.T) {
	c := InferColumn("x", []string{"3", "NA", "5"})
	require.Equal(t, KindInt, c.Kind())
	assert.True(t, c.Cell(0).Valid)
	assert.False(t, c.Cell(1).Valid)
	assert.Equal(t, NA, c.Key(1))
	assert.Equal(t, int64(5), c.Cell(2).I)
}

func TestFloatColumnNaNIsNull(t *testing.T) {
	c := FloatColumn("x", []float64{1, math.NaN()})
	assert.True(t, c.Cell(0).Valid)
	assert.False(t, c.Cell(1).Valid)
}

func TestNewShapeMismatch(t *testing.T) {
	_, err := New(3, StringColumn("a", []string{"x", "y"}))
	var shape *errs.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 2, shape.Got)
	assert.Equal(t, 3, shape.Want)
}

func TestNewDuplicateColumn(t *testing.T) {
	_, err := New(1, StringColumn("a", []string{"x"}), IntColumn("a", []int64{1}))
	var dup *errs.DuplicateNameError
	require.True(t, errors.As(err, &dup))
}

func TestSubsetAndWith(t *testing.T) {
	tab, err := New(3,
		StringColumn("protein", []string{"A", "B", "C"}),
		FloatColumn("score", []float64{0.1, 0.2, 0.3}),
	)
	require.NoError(t, err)

	sub := tab.Subset([]int{2, 0})
	require.Equal(t, 2, sub.NRow())
	assert.Equal(t, "C", sub.ColumnAt(0).Key(0))
	assert.Equal(t, "A", sub.ColumnAt(0).Key(1))

	replaced, err := tab.With(IntColumn("score", []int64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"protein", "score"}, replaced.Names())
	c, _ := replaced.Column("score")
	assert.Equal(t, KindInt, c.Kind())

	// The original is untouched
	c, _ = tab.Column("score")
	assert.Equal(t, KindFloat, c.Kind())
}

func TestRawRoundTrip(t *testing.T) {
	when := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, c := range []*Column{
		InferColumn("i", []string{"1", "NA"}),
		FloatColumn("f", []float64{1.25, math.NaN()}),
		BoolColumn("b", []bool{true, false}),
		TimeColumn("t", []time.Time{when, when.Add(time.Hour)}),
		StringColumn("s", []string{"x", "y"}),
	} {
		back, err := FromRaw(c.Name(), c.Kind(), c.Raw())
		require.NoError(t, err)
		require.Equal(t, c.Len(), back.Len())
		for i := 0; i < c.Len(); i++ {
			assert.Equal(t, c.Key(i), back.Key(i), "column %s row %d", c.Name(), i)
		}
	}
}

func TestConstantWithin(t *testing.T) {
	c := StringColumn("g", []string{"a", "a", "b"})
	assert.True(t, c.ConstantWithin([]int{0, 1}))
	assert.False(t, c.ConstantWithin([]int{0, 2}))
	assert.True(t, c.ConstantWithin([]int{2}))
}

func TestConstantWithinSubSecondAndNulls(t *testing.T) {
	when := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	times := TimeColumn("Acquired", []time.Time{when, when.Add(250 * time.Millisecond), when})
	assert.False(t, times.ConstantWithin([]int{0, 1}))
	assert.True(t, times.ConstantWithin([]int{0, 2}))
	assert.NotEqual(t, times.Key(0), times.Key(1))

	s := NullStringColumn("g", []null.String{null.StringFrom(NA), {}})
	assert.Equal(t, s.Key(0), s.Key(1))
	assert.False(t, s.ConstantWithin([]int{0, 1}))
	assert.True(t, s.Valid(0))
	assert.False(t, s.Valid(1))
}
