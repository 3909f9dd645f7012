package missing

import (
	"math"
	"testing"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/assay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func sample(t *testing.T) *assay.Assay {
	a, err := assay.New(
		[]string{"r1", "r2", "r3"},
		[]string{"s1", "s2"},
		[][]float64{
			{1, nan},
			{0, 4},
			{nan, nan},
		}, nil, nil)
	require.NoError(t, err)
	return a
}

func TestCountNA(t *testing.T) {
	c := CountNA(sample(t))
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, []int{1, 0, 2}, c.Rows)
	assert.Equal(t, []int{1, 2}, c.Cols)
	assert.InDelta(t, 0.5, c.Proportion(), 1e-12)
}

func TestZeroIsNA(t *testing.T) {
	m, err := ZeroIsNA(sample(t))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.At(1, 0)))
	assert.Equal(t, 4.0, m.At(1, 1))
}

func TestFilterNA(t *testing.T) {
	c, err := qfeatures.New().AddAssay("a", sample(t))
	require.NoError(t, err)

	f, err := FilterNA(c, "a", 0.5)
	require.NoError(t, err)
	a, _ := f.Assay("a")
	assert.Equal(t, []string{"r1", "r2"}, a.RowIDs())

	f, err = FilterNA(c, "a", 0)
	require.NoError(t, err)
	a, _ = f.Assay("a")
	assert.Equal(t, []string{"r2"}, a.RowIDs())

	same, err := FilterNA(c, "a", 1)
	require.NoError(t, err)
	assert.Same(t, c, same)

	_, err = FilterNA(c, "a", 2)
	assert.Error(t, err)
}

func TestImpute(t *testing.T) {
	c, err := qfeatures.New().AddAssay("a", sample(t))
	require.NoError(t, err)

	z, err := Impute(c, "a", Zero)
	require.NoError(t, err)
	a, _ := z.Assay("a")
	assert.Equal(t, 0, a.CountNaN())
	assert.Equal(t, 0.0, a.At(2, 1))

	m, err := Impute(c, "a", Min)
	require.NoError(t, err)
	a, _ = m.Assay("a")
	assert.Equal(t, 0.0, a.At(0, 1))

	d, err := Impute(c, "a", MinDet(0))
	require.NoError(t, err)
	a, _ = d.Assay("a")
	assert.Equal(t, 0.0, a.At(2, 0))
	assert.Equal(t, 4.0, a.At(0, 1))

	// The original is untouched.
	orig, _ := c.Assay("a")
	assert.Equal(t, 3, orig.CountNaN())
}
