package main

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/reduce"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	rd, err := table.New(3, table.StringColumn("Protein", []string{"P1", "P1", "P2"}))
	require.NoError(t, err)

	c, err := qfeatures.New().AddMatrix("peptides",
		[]string{"a", "b", "c"}, []string{"S1", "S2"},
		[][]float64{{1, 2}, {3, math.NaN()}, {5, 6}}, rd, nil)
	require.NoError(t, err)

	c, err = c.Aggregate(context.Background(), qfeatures.AggregateOptions{
		From: "peptides", Column: "Protein", To: "proteins", Reduce: reduce.Sum(true),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, describe(&buf, c, c.Names(), true, 5))

	out := buf.String()
	assert.Contains(t, out, "State: linked, 2 assays, 2 samples")
	assert.Contains(t, out, "peptides -> proteins by Protein")
	assert.Contains(t, out, "peptides: 3 rows x 2 samples, 1 missing")
	assert.Contains(t, out, "proteins: 2 rows x 2 samples, 0 missing")
}
