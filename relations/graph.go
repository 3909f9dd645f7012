package relations

import (
	"errors"
	"fmt"

	"github.com/carbocation/qfeatures/errs"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCycle is returned when an edge would make an assay derive, directly or
// transitively, from itself.
var ErrCycle = errors.New("link would create a cycle")

// Direction selects which way Related walks.
type Direction int

const (
	// Descendants walks toward finer assays (protein -> peptides -> PSMs).
	Descendants Direction = iota
	// Ancestors walks toward coarser assays (PSM -> peptide -> protein).
	Ancestors
	// Both is the union of Descendants and Ancestors.
	Both
)

func (d Direction) String() string {
	switch d {
	case Descendants:
		return "descendants"
	case Ancestors:
		return "ancestors"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "descendants", "down", "":
		return Descendants, nil
	case "ancestors", "up":
		return Ancestors, nil
	case "both":
		return Both, nil
	}
	return Descendants, fmt.Errorf("unknown direction %q (want descendants, ancestors or both)", s)
}

// Graph is the set of edges between the assays of one container. Every assay
// is derived from at most one source, but a source may feed several derived
// assays, so the graph is a forest. Graphs are immutable; With and Without
// return modified copies that share the edges themselves.
type Graph struct {
	edges   map[string]*Edge    // keyed by parent
	order   []string            // parents in insertion order
	parents map[string][]string // child -> parents in insertion order
}

func NewGraph() *Graph {
	return &Graph{edges: map[string]*Edge{}, parents: map[string][]string{}}
}

func (g *Graph) Len() int { return len(g.order) }

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.order))
	for i, p := range g.order {
		out[i] = g.edges[p]
	}
	return out
}

// Edge returns the edge that built parent.
func (g *Graph) Edge(parent string) (*Edge, bool) {
	e, ok := g.edges[parent]
	return e, ok
}

// Source names the assay that parent was built from.
func (g *Graph) Source(parent string) (string, bool) {
	e, ok := g.edges[parent]
	if !ok {
		return "", false
	}
	return e.Child, true
}

// Parents lists the assays built directly from child.
func (g *Graph) Parents(child string) []string {
	return append([]string(nil), g.parents[child]...)
}

// Derived lists every assay built from name, directly or transitively, in
// breadth-first order.
func (g *Graph) Derived(name string) []string {
	var out []string
	queue := g.parents[name]
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, g.parents[next]...)
	}
	return out
}

func (g *Graph) clone() *Graph {
	out := &Graph{
		edges:   make(map[string]*Edge, len(g.edges)+1),
		order:   append([]string(nil), g.order...),
		parents: make(map[string][]string, len(g.parents)+1),
	}
	for k, v := range g.edges {
		out.edges[k] = v
	}
	for k, v := range g.parents {
		out.parents[k] = append([]string(nil), v...)
	}
	return out
}

// With returns a copy of g that also holds e. An assay may only be derived
// once, and no assay may derive from itself.
func (g *Graph) With(e *Edge) (*Graph, error) {
	if e.Child == e.Parent {
		return nil, fmt.Errorf("%s -> %s: %w", e.Child, e.Parent, ErrCycle)
	}
	if existing, ok := g.edges[e.Parent]; ok {
		return nil, &errs.DuplicateNameError{Kind: "link into assay", Name: e.Parent + " (from " + existing.Child + ")"}
	}

	out := g.clone()
	out.edges[e.Parent] = e
	out.order = append(out.order, e.Parent)
	out.parents[e.Child] = append(out.parents[e.Child], e.Parent)

	if err := out.checkAcyclic(); err != nil {
		return nil, fmt.Errorf("%s -> %s: %w", e.Child, e.Parent, err)
	}

	return out, nil
}

func (g *Graph) checkAcyclic() error {
	ids := make(map[string]int64)
	dg := simple.NewDirectedGraph()
	node := func(name string) simple.Node {
		id, ok := ids[name]
		if !ok {
			id = int64(len(ids))
			ids[name] = id
			dg.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}

	for _, p := range g.order {
		e := g.edges[p]
		dg.SetEdge(dg.NewEdge(node(e.Child), node(e.Parent)))
	}

	if _, err := topo.Sort(dg); err != nil {
		return ErrCycle
	}
	return nil
}

// Without returns a copy of g with every edge touching name removed.
func (g *Graph) Without(name string) *Graph {
	out := NewGraph()
	for _, p := range g.order {
		e := g.edges[p]
		if e.Child == name || e.Parent == name {
			continue
		}
		out.edges[p] = e
		out.order = append(out.order, p)
		out.parents[e.Child] = append(out.parents[e.Child], p)
	}
	return out
}

// Related is the set of rows in one assay linked to a query row.
type Related struct {
	Assay  string
	RowIDs []string
}

// Related walks from row in assay across every reachable assay. present
// reports whether a row still exists (rows dropped by filtering keep their
// edges but are skipped, and are not walked through). Assays are returned in
// breadth-first order; when dir is Both, descendants come first.
func (g *Graph) Related(name, row string, dir Direction, present func(assay, row string) bool) []Related {
	switch dir {
	case Descendants:
		return g.walk(name, row, g.down, present)
	case Ancestors:
		return g.walk(name, row, g.up, present)
	}
	return append(g.walk(name, row, g.down, present), g.walk(name, row, g.up, present)...)
}

type step func(from string, rows []string) []Related

func (g *Graph) walk(name, row string, next step, present func(assay, row string) bool) []Related {
	var out []Related
	queue := []Related{{Assay: name, RowIDs: []string{row}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, r := range next(cur.Assay, cur.RowIDs) {
			kept := make([]string, 0, len(r.RowIDs))
			for _, id := range r.RowIDs {
				if present == nil || present(r.Assay, id) {
					kept = append(kept, id)
				}
			}
			r.RowIDs = kept
			out = append(out, r)
			queue = append(queue, r)
		}
	}
	return out
}

// down maps rows of a parent onto its source's rows.
func (g *Graph) down(from string, rows []string) []Related {
	e, ok := g.edges[from]
	if !ok {
		return nil
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, e.members[r]...)
	}
	return []Related{{Assay: e.Child, RowIDs: dedupe(ids)}}
}

// up maps rows of a child onto every assay built from it.
func (g *Graph) up(from string, rows []string) []Related {
	var out []Related
	for _, p := range g.parents[from] {
		e := g.edges[p]
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			if pr, ok := e.childToParent[r]; ok {
				ids = append(ids, pr)
			}
		}
		out = append(out, Related{Assay: p, RowIDs: dedupe(ids)})
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
