package sqlitestore

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/reduce"
	"github.com/carbocation/qfeatures/relations"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func fixture(t *testing.T) *qfeatures.Container {
	when := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	rd, err := table.New(4,
		table.StringColumn("Sequence", []string{"AAK", "CCR", "AAK", "DDK"}),
		table.StringColumn("Protein", []string{"P1", "P2", "P1", "P1"}),
		table.FloatColumn("pval", []float64{0.01, math.NaN(), 0.2, 0.03}),
		table.BoolColumn("Reverse", []bool{false, false, true, false}),
		table.TimeColumn("Acquired", []time.Time{when, when, when, when}),
	)
	require.NoError(t, err)

	c, err := qfeatures.New().AddMatrix("psms",
		[]string{"psm1", "psm2", "psm3", "psm4"},
		[]string{"s1", "s2"},
		[][]float64{{1, 2}, {3, math.NaN()}, {5, 6}, {7, 8}},
		rd, nil)
	require.NoError(t, err)

	c, err = c.Aggregate(context.Background(), qfeatures.AggregateOptions{From: "psms", Column: "Sequence", To: "peptides", Reduce: reduce.Sum(true)})
	require.NoError(t, err)

	annot, err := table.New(2,
		table.StringColumn("id", []string{"s1", "s2"}),
		table.NullStringColumn("condition", []null.String{null.StringFrom("case"), {}}),
	)
	require.NoError(t, err)
	c, err = c.WithColData(annot, "id")
	require.NoError(t, err)

	return c
}

func TestRoundTrip(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	orig := fixture(t)
	require.NoError(t, Save(db, orig))

	got, err := Load(db)
	require.NoError(t, err)

	assert.Equal(t, orig.Names(), got.Names())
	assert.Equal(t, orig.State(), got.State())
	for _, name := range orig.Names() {
		a, _ := orig.Assay(name)
		b, _ := got.Assay(name)
		assert.Equal(t, a.RowIDs(), b.RowIDs(), name)
		assert.Equal(t, a.ColIDs(), b.ColIDs(), name)
		assert.Equal(t, len(a.Values()), len(b.Values()), name)
		for i, v := range a.Values() {
			if math.IsNaN(v) {
				assert.True(t, math.IsNaN(b.Values()[i]), name)
				continue
			}
			assert.Equal(t, v, b.Values()[i], name)
		}
		assert.Equal(t, a.RowData().Names(), b.RowData().Names(), name)
		for j := 0; j < a.RowData().NCol(); j++ {
			x, y := a.RowData().ColumnAt(j), b.RowData().ColumnAt(j)
			assert.Equal(t, x.Kind(), y.Kind(), x.Name())
			assert.Equal(t, x.Raw(), y.Raw(), x.Name())
		}
	}

	cond, ok := got.ColData().Column("condition")
	require.True(t, ok)
	assert.Equal(t, "case", cond.Key(0))
	assert.False(t, cond.Cell(1).Valid)

	rel, err := got.RowsRelatedTo("peptides", "AAK", relations.Descendants)
	require.NoError(t, err)
	assert.Equal(t, []string{"psm1", "psm3"}, rel[0].RowIDs)
}

func TestRoundTripFiltered(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	f, err := fixture(t).FilterExpr("Reverse == FALSE", qfeatures.FilterOptions{})
	require.NoError(t, err)
	require.NoError(t, Save(db, f))

	// A second save replaces the first.
	require.NoError(t, Save(db, f))

	got, err := Load(db)
	require.NoError(t, err)
	assert.Equal(t, qfeatures.Filtered, got.State())

	psms, _ := got.Assay("psms")
	assert.Equal(t, []string{"psm1", "psm2", "psm4"}, psms.RowIDs())

	rel, err := got.RowsRelatedTo("peptides", "AAK", relations.Descendants)
	require.NoError(t, err)
	assert.Equal(t, []string{"psm1"}, rel[0].RowIDs)
}

func TestRoundTripAggregatedAfterFilter(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	f, err := fixture(t).FilterExpr("Reverse == FALSE", qfeatures.FilterOptions{})
	require.NoError(t, err)
	c, err := f.Aggregate(context.Background(), qfeatures.AggregateOptions{From: "peptides", Column: "Protein", To: "proteins", Reduce: reduce.Sum(true)})
	require.NoError(t, err)
	require.Equal(t, qfeatures.Linked, c.State())
	require.True(t, c.Pruned())

	require.NoError(t, Save(db, c))

	got, err := Load(db)
	require.NoError(t, err)
	assert.Equal(t, qfeatures.Linked, got.State())
	assert.True(t, got.Pruned())
	assert.Equal(t, []string{"psms", "peptides", "proteins"}, got.Names())

	// psm3 is gone, so only the surviving PSMs of AAK are reported.
	rel, err := got.RowsRelatedTo("proteins", "P1", relations.Descendants)
	require.NoError(t, err)
	require.Len(t, rel, 2)
	assert.Equal(t, "peptides", rel[0].Assay)
	assert.Equal(t, []string{"psm1", "psm4"}, rel[1].RowIDs)
}
