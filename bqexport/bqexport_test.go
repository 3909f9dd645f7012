package bqexport

import (
	"math"
	"testing"

	"github.com/carbocation/qfeatures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	c, err := qfeatures.New().AddMatrix("proteins", []string{"P1"}, []string{"s1", "s2"}, [][]float64{{1.5, math.NaN()}}, nil, nil)
	require.NoError(t, err)
	recs, err := c.LongForm()
	require.NoError(t, err)

	rows := Rows(recs)
	require.Len(t, rows, 2)
	assert.Equal(t, "proteins", rows[0].Assay)
	assert.Equal(t, "P1", rows[0].Feature)
	assert.Equal(t, "s1", rows[0].Sample)
	assert.True(t, rows[0].Value.Valid)
	assert.Equal(t, 1.5, rows[0].Value.Float64)
	assert.False(t, rows[1].Value.Valid)
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)

	var names []string
	for _, f := range s {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"assay", "feature", "sample", "value"}, names)
}
