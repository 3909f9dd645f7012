package qfeatures

import (
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/relations"
)

// RowsRelatedTo lists, for every other assay reachable from name, the rows
// linked to row. Rows removed by filtering are left out and are not followed
// any further.
func (c *Container) RowsRelatedTo(name, row string, dir relations.Direction) ([]relations.Related, error) {
	a, err := c.Assay(name)
	if err != nil {
		return nil, err
	}
	if _, ok := a.RowIndex(row); !ok {
		return nil, &errs.NotFoundError{Kind: "feature in " + name, Name: row}
	}
	return c.links.Related(name, row, dir, c.present), nil
}

func (c *Container) present(name, row string) bool {
	a, ok := c.assays[name]
	if !ok {
		return false
	}
	_, ok = a.RowIndex(row)
	return ok
}

// SubsetByFeature keeps the named rows of one assay together with every row
// linked to them in any other assay. Assays with nothing linked are kept
// with zero rows, so the container keeps its shape and links.
func (c *Container) SubsetByFeature(name string, rows ...string) (*Container, error) {
	a, err := c.Assay(name)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]map[string]bool, len(c.names))
	for _, n := range c.names {
		keep[n] = map[string]bool{}
	}
	for _, row := range rows {
		if _, ok := a.RowIndex(row); !ok {
			return nil, &errs.NotFoundError{Kind: "feature in " + name, Name: row}
		}
		keep[name][row] = true
		for _, r := range c.links.Related(name, row, relations.Both, c.present) {
			for _, id := range r.RowIDs {
				keep[r.Assay][id] = true
			}
		}
	}

	out := c.clone()
	for _, n := range c.names {
		src := c.assays[n]
		var idx []int
		for i, id := range src.RowIDs() {
			if keep[n][id] {
				idx = append(idx, i)
			}
		}
		if len(idx) < src.NRow() {
			out.assays[n] = src.Subset(idx)
		}
	}
	out.filtered = true
	out.pruned = true

	return out, nil
}

// SubsetRows keeps only the named rows of one assay, in that assay's order.
// Other assays are untouched, and the result counts as filtered.
func (c *Container) SubsetRows(name string, rows ...string) (*Container, error) {
	a, err := c.Assay(name)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(rows))
	for _, row := range rows {
		if _, ok := a.RowIndex(row); !ok {
			return nil, &errs.NotFoundError{Kind: "feature in " + name, Name: row}
		}
		want[row] = true
	}

	idx := make([]int, 0, len(want))
	for i, id := range a.RowIDs() {
		if want[id] {
			idx = append(idx, i)
		}
	}

	out := c.clone()
	out.assays[name] = a.Subset(idx)
	out.filtered = true
	out.pruned = true

	c.log.Printf("Kept %d of %d features of %s\n", len(idx), a.NRow(), name)

	return out, nil
}
