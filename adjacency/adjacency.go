// Package adjacency groups peptides that share protein accessions.
//
// A peptide that maps to several proteins ties those proteins together.
// Following the ties gives the connected components of the bipartite
// peptide-protein graph, which are the smallest sets of proteins that can be
// quantified without double counting a shared peptide.
package adjacency

import (
	"strings"

	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
	"github.com/theodesp/unionfind"
)

// Component is one connected set of proteins and the peptides that map to
// them.
type Component struct {
	ID       string
	Proteins []string
	Rows     []string
}

// Components splits the accession lists in column (separated by sep) and
// returns the connected components in the order their first protein is seen.
// Rows whose column is null belong to no component.
func Components(a *assay.Assay, column, sep string) ([]Component, error) {
	comps, _, err := components(a, column, sep)
	return comps, err
}

func components(a *assay.Assay, column, sep string) ([]Component, []int, error) {
	col, ok := a.RowData().Column(column)
	if !ok {
		return nil, nil, &errs.MissingColumnError{Column: column}
	}

	// Proteins are numbered in first-seen order.
	proteinID := make(map[string]int)
	var proteins []string
	rowProteins := make([][]int, a.NRow())
	for i := 0; i < a.NRow(); i++ {
		cell := col.Cell(i)
		if !cell.Valid {
			continue
		}
		for _, acc := range strings.Split(cell.String(), sep) {
			acc = strings.TrimSpace(acc)
			if acc == "" {
				continue
			}
			id, seen := proteinID[acc]
			if !seen {
				id = len(proteins)
				proteinID[acc] = id
				proteins = append(proteins, acc)
			}
			rowProteins[i] = append(rowProteins[i], id)
		}
	}

	uf := unionfind.NewThreadSafeUnionFind(len(proteins))
	for _, ids := range rowProteins {
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids[1:] {
			uf.Union(ids[0], id)
		}
	}

	// Components are numbered by their first protein.
	compOf := make(map[int]int)
	var out []Component
	for p, acc := range proteins {
		root := uf.Root(p)
		k, seen := compOf[root]
		if !seen {
			k = len(out)
			compOf[root] = k
			out = append(out, Component{})
		}
		out[k].Proteins = append(out[k].Proteins, acc)
	}
	for k := range out {
		out[k].ID = strings.Join(out[k].Proteins, sep)
	}

	rowComp := make([]int, a.NRow())
	for i, ids := range rowProteins {
		if len(ids) == 0 {
			rowComp[i] = -1
			continue
		}
		k := compOf[uf.Root(ids[0])]
		rowComp[i] = k
		out[k].Rows = append(out[k].Rows, a.RowID(i))
	}

	return out, rowComp, nil
}

// Annotate returns a copy of a whose row metadata has an extra column named
// out holding each row's component ID, ready to aggregate on.
func Annotate(a *assay.Assay, column, sep, out string) (*assay.Assay, error) {
	comps, rowComp, err := components(a, column, sep)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(rowComp))
	valid := make([]bool, len(rowComp))
	for i, k := range rowComp {
		if k >= 0 {
			ids[i], valid[i] = comps[k].ID, true
		}
	}

	raw := table.StringColumn(out, ids).Raw()
	for i := range raw {
		raw[i].Valid = valid[i]
	}
	rd, err := a.RowData().With(table.NullStringColumn(out, raw))
	if err != nil {
		return nil, err
	}
	return a.WithRowData(rd)
}
