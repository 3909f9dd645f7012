package relations

import (
	"errors"
	"testing"
	"time"

	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func psms(t *testing.T) *assay.Assay {
	rd, err := table.New(5,
		table.StringColumn("Sequence", []string{"AAK", "AAK", "CCR", "DDK", "CCR"}),
		table.StringColumn("Protein", []string{"P1", "P1", "P2", "P1", "P2"}),
	)
	require.NoError(t, err)
	a, err := assay.New(
		[]string{"psm1", "psm2", "psm3", "psm4", "psm5"},
		[]string{"s1"},
		[][]float64{{1}, {2}, {3}, {4}, {5}},
		rd, nil)
	require.NoError(t, err)
	return a
}

func TestGroupRowsFirstSeenOrder(t *testing.T) {
	keys, members, err := GroupRows("psms", psms(t), "Sequence")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAK", "CCR", "DDK"}, keys)
	assert.Equal(t, [][]int{{0, 1}, {2, 4}, {3}}, members)
}

func TestGroupRowsMissingColumn(t *testing.T) {
	_, _, err := GroupRows("psms", psms(t), "Gene")
	var missing *errs.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "psms", missing.Assay)
}

func TestGroupRowsTimes(t *testing.T) {
	when := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	rd, err := table.New(3, table.TimeColumn("Acquired", []time.Time{when, when.Add(time.Millisecond), when}))
	require.NoError(t, err)
	a, err := assay.New([]string{"r1", "r2", "r3"}, []string{"s1"}, [][]float64{{1}, {2}, {3}}, rd, nil)
	require.NoError(t, err)

	keys, members, err := GroupRows("runs", a, "Acquired")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Equal(t, [][]int{{0, 2}, {1}}, members)
}

func TestGroupRowsLiteralNAAndNull(t *testing.T) {
	rd, err := table.New(3, table.NullStringColumn("Gene", []null.String{null.StringFrom(table.NA), {}, null.StringFrom("TP53")}))
	require.NoError(t, err)
	a, err := assay.New([]string{"r1", "r2", "r3"}, []string{"s1"}, [][]float64{{1}, {2}, {3}}, rd, nil)
	require.NoError(t, err)

	_, _, err = GroupRows("genes", a, "Gene")
	var dup *errs.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, table.NA, dup.Name)
}

// linked builds psms -> peptides -> proteins without going through a
// container.
func linked(t *testing.T) *Graph {
	p := psms(t)
	keys, members, err := GroupRows("psms", p, "Sequence")
	require.NoError(t, err)

	g, err := NewGraph().With(NewEdge("psms", "peptides", "Sequence", p, keys, members))
	require.NoError(t, err)

	pepRD, err := table.New(3, table.StringColumn("Protein", []string{"P1", "P2", "P1"}))
	require.NoError(t, err)
	pep, err := assay.New(keys, []string{"s1"}, [][]float64{{1}, {2}, {3}}, pepRD, nil)
	require.NoError(t, err)
	pkeys, pmembers, err := GroupRows("peptides", pep, "Protein")
	require.NoError(t, err)

	g, err = g.With(NewEdge("peptides", "proteins", "Protein", pep, pkeys, pmembers))
	require.NoError(t, err)
	return g
}

func TestRelatedDescendants(t *testing.T) {
	g := linked(t)

	got := g.Related("proteins", "P1", Descendants, nil)
	require.Len(t, got, 2)
	assert.Equal(t, Related{Assay: "peptides", RowIDs: []string{"AAK", "DDK"}}, got[0])
	assert.Equal(t, Related{Assay: "psms", RowIDs: []string{"psm1", "psm2", "psm4"}}, got[1])
}

func TestRelatedAncestors(t *testing.T) {
	g := linked(t)

	got := g.Related("psms", "psm3", Ancestors, nil)
	require.Len(t, got, 2)
	assert.Equal(t, Related{Assay: "peptides", RowIDs: []string{"CCR"}}, got[0])
	assert.Equal(t, Related{Assay: "proteins", RowIDs: []string{"P2"}}, got[1])
}

func TestRelatedBoth(t *testing.T) {
	g := linked(t)

	got := g.Related("peptides", "CCR", Both, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "psms", got[0].Assay)
	assert.Equal(t, []string{"psm3", "psm5"}, got[0].RowIDs)
	assert.Equal(t, "proteins", got[1].Assay)
}

func TestRelatedSkipsAbsentRows(t *testing.T) {
	g := linked(t)
	gone := map[string]bool{"peptides/DDK": true}
	present := func(a, r string) bool { return !gone[a+"/"+r] }

	got := g.Related("proteins", "P1", Descendants, present)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"AAK"}, got[0].RowIDs)
	// psm4 belongs to the dropped DDK peptide and is not reached through it
	assert.Equal(t, []string{"psm1", "psm2"}, got[1].RowIDs)
}

func TestWithRejectsSecondSourceAndCycles(t *testing.T) {
	g := linked(t)

	_, err := g.With(NewIdentityEdge("psms", "proteins", nil))
	var dup *errs.DuplicateNameError
	require.True(t, errors.As(err, &dup))

	_, err = g.With(NewIdentityEdge("proteins", "psms", nil))
	require.True(t, errors.Is(err, ErrCycle), "got %v", err)

	_, err = g.With(NewIdentityEdge("psms", "psms", nil))
	require.True(t, errors.Is(err, ErrCycle))
}

func TestWithoutAndDerived(t *testing.T) {
	g := linked(t)
	assert.Equal(t, []string{"peptides", "proteins"}, g.Derived("psms"))

	h := g.Without("proteins")
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2, g.Len())
	assert.Empty(t, h.Parents("peptides"))
}

func TestGroupsRoundTrip(t *testing.T) {
	g := linked(t)
	e, ok := g.Edge("peptides")
	require.True(t, ok)

	back := FromGroups(e.Child, e.Parent, e.Column, e.Groups())
	assert.Equal(t, e.ParentRows(), back.ParentRows())
	p, ok := back.ParentRow("psm5")
	require.True(t, ok)
	assert.Equal(t, "CCR", p)
}
