// Package relations records which rows of one assay were combined into which
// rows of another, and walks those links across a container.
package relations

import (
	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
)

// Edge links the rows of a finer child assay (e.g. peptides) to the rows of
// the coarser parent assay built from them (e.g. proteins). Edges are
// immutable once built.
type Edge struct {
	Child  string
	Parent string
	Column string // grouping column in the child's row metadata

	parentRows    []string
	members       map[string][]string
	childToParent map[string]string
}

// Group lists the child rows that were combined into one parent row.
type Group struct {
	Parent   string
	Children []string
}

// GroupRows splits the rows of a by the value of column. Keys come back in
// the order they are first encountered, and members of each group keep the
// child's row order. Null cells share the key table.NA; a column that also
// holds the literal string NA cannot be grouped.
func GroupRows(name string, a *assay.Assay, column string) (keys []string, members [][]int, err error) {
	col, ok := a.RowData().Column(column)
	if !ok {
		return nil, nil, &errs.MissingColumnError{Assay: name, Column: column}
	}

	position := make(map[string]int)
	validNA, nullNA := false, false
	for i := 0; i < a.NRow(); i++ {
		key := col.Key(i)
		if key == table.NA {
			if col.Valid(i) {
				validNA = true
			} else {
				nullNA = true
			}
			if validNA && nullNA {
				return nil, nil, &errs.DuplicateNameError{Kind: "group key in " + name + " column " + column, Name: table.NA}
			}
		}
		k, seen := position[key]
		if !seen {
			k = len(keys)
			position[key] = k
			keys = append(keys, key)
			members = append(members, nil)
		}
		members[k] = append(members[k], i)
	}

	return keys, members, nil
}

// NewEdge records an aggregation of child into parent. keys become the parent
// row IDs and members index into the child's rows, as returned by GroupRows.
func NewEdge(child, parent, column string, childAssay *assay.Assay, keys []string, members [][]int) *Edge {
	e := &Edge{
		Child:         child,
		Parent:        parent,
		Column:        column,
		parentRows:    append([]string(nil), keys...),
		members:       make(map[string][]string, len(keys)),
		childToParent: make(map[string]string, childAssay.NRow()),
	}

	for k, key := range keys {
		rows := make([]string, len(members[k]))
		for m, i := range members[k] {
			rows[m] = childAssay.RowID(i)
			e.childToParent[rows[m]] = key
		}
		e.members[key] = rows
	}

	return e
}

// NewIdentityEdge links two assays whose rows correspond one to one, such as
// an assay and its log-transformed copy.
func NewIdentityEdge(child, parent string, rowIDs []string) *Edge {
	e := &Edge{
		Child:         child,
		Parent:        parent,
		parentRows:    append([]string(nil), rowIDs...),
		members:       make(map[string][]string, len(rowIDs)),
		childToParent: make(map[string]string, len(rowIDs)),
	}
	for _, id := range rowIDs {
		e.members[id] = []string{id}
		e.childToParent[id] = id
	}
	return e
}

// Identity reports whether the edge is a one-to-one link.
func (e *Edge) Identity() bool { return e.Column == "" }

func (e *Edge) ParentRows() []string { return append([]string(nil), e.parentRows...) }

// ChildRows lists the child rows combined into parentRow.
func (e *Edge) ChildRows(parentRow string) []string {
	return append([]string(nil), e.members[parentRow]...)
}

// ParentRow returns the parent row that childRow was combined into.
func (e *Edge) ParentRow(childRow string) (string, bool) {
	p, ok := e.childToParent[childRow]
	return p, ok
}

// Groups returns every parent row with its children, in parent row order.
func (e *Edge) Groups() []Group {
	out := make([]Group, len(e.parentRows))
	for i, p := range e.parentRows {
		out[i] = Group{Parent: p, Children: e.ChildRows(p)}
	}
	return out
}

// FromGroups rebuilds an edge from its serialised form.
func FromGroups(child, parent, column string, groups []Group) *Edge {
	e := &Edge{
		Child:         child,
		Parent:        parent,
		Column:        column,
		parentRows:    make([]string, len(groups)),
		members:       make(map[string][]string, len(groups)),
		childToParent: make(map[string]string),
	}
	for i, g := range groups {
		e.parentRows[i] = g.Parent
		e.members[g.Parent] = append([]string(nil), g.Children...)
		for _, c := range g.Children {
			e.childToParent[c] = g.Parent
		}
	}
	return e
}
