package reduce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestColumnWiseNaPolicy(t *testing.T) {
	rows := [][]float64{{1, nan}, {3, 4}}

	got, err := Mean(true)(rows)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, got)

	got, err = Mean(false)(rows)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[0])
	assert.True(t, math.IsNaN(got[1]))

	got, err = Sum(true)([][]float64{{nan}, {nan}})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
}

func TestBuiltins(t *testing.T) {
	rows := [][]float64{{1, 10}, {2, 20}, {6, 30}}
	for _, v := range []struct {
		name string
		want []float64
	}{
		{"sum", []float64{9, 60}},
		{"mean", []float64{3, 20}},
		{"median", []float64{2, 20}},
		{"max", []float64{6, 30}},
		{"min", []float64{1, 10}},
	} {
		f, err := Lookup(v.name, true)
		require.NoError(t, err)
		got, err := f(rows)
		require.NoError(t, err)
		assert.Equal(t, v.want, got, v.name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("geomean", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "median")
}

func TestEmptyGroup(t *testing.T) {
	_, err := Median(false)(nil)
	require.Error(t, err)
	_, err = MedianPolish(false)(nil)
	require.Error(t, err)
}

func TestMedianPolish(t *testing.T) {
	got, err := MedianPolish(false)([][]float64{{1, 2, 3}, {2, 3, 4}})
	require.NoError(t, err)
	for j, want := range []float64{1.5, 2.5, 3.5} {
		assert.InDelta(t, want, got[j], 1e-9)
	}

	single, err := MedianPolish(false)([][]float64{{5, 7, 9}})
	require.NoError(t, err)
	for j, want := range []float64{5, 7, 9} {
		assert.InDelta(t, want, single[j], 1e-9)
	}
}

func TestMedianPolishNaN(t *testing.T) {
	got, err := MedianPolish(false)([][]float64{{1, nan}, {2, 3}})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))

	got, err = MedianPolish(true)([][]float64{{1, nan}, {2, nan}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
}
