package qfeatures

import (
	"errors"
	"strconv"

	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/relations"
	"github.com/carbocation/qfeatures/table"
)

// State summarises where a container is in its lifecycle.
type State int

const (
	Empty     State = iota // no assays
	Populated              // assays, no links
	Linked                 // at least one aggregation or transform recorded
	Filtered               // a row-reduced copy; links kept, some rows gone
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	case Linked:
		return "linked"
	case Filtered:
		return "filtered"
	}
	return "unknown"
}

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Print(v ...interface{})                 {}
func (nopLogger) Printf(format string, v ...interface{}) {}
func (nopLogger) Println(v ...interface{})               {}

// Option configures a new Container.
type Option func(*Container)

// WithLogger makes the container, and every container derived from it,
// report what its operations did. A *log.Logger satisfies the interface.
func WithLogger(l logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// Container holds named assays in insertion order, shared sample
// annotations, and the links recorded between assays. A Container is never
// modified once returned: every operation that changes it returns a new
// Container that shares unchanged assays and links with the old one, so an
// operation that fails leaves its receiver exactly as it was.
type Container struct {
	names  []string
	assays map[string]*assay.Assay
	links  *relations.Graph

	// Union of every assay's samples, first seen first.
	samples []string

	// Optional sample annotation, keyed by annotIDs.
	annot    *table.Table
	annotIDs map[string]int

	filtered bool

	// pruned outlives filtered: once rows are removed, older links may
	// name rows that no longer exist, even after later aggregations.
	pruned bool

	log logger
}

func New(opts ...Option) *Container {
	c := &Container{
		assays: map[string]*assay.Assay{},
		links:  relations.NewGraph(),
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Container) clone() *Container {
	out := *c
	out.names = append([]string(nil), c.names...)
	out.assays = make(map[string]*assay.Assay, len(c.assays)+1)
	for k, v := range c.assays {
		out.assays[k] = v
	}
	return &out
}

func (c *Container) State() State {
	switch {
	case c.filtered:
		return Filtered
	case c.links.Len() > 0:
		return Linked
	case len(c.names) > 0:
		return Populated
	}
	return Empty
}

// Len is the number of assays.
func (c *Container) Len() int { return len(c.names) }

// Names lists assay names in insertion order.
func (c *Container) Names() []string { return append([]string(nil), c.names...) }

func (c *Container) Has(name string) bool {
	_, ok := c.assays[name]
	return ok
}

func (c *Container) Assay(name string) (*assay.Assay, error) {
	a, ok := c.assays[name]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "assay", Name: name}
	}
	return a, nil
}

// AssayAt returns the i'th assay in insertion order along with its name.
func (c *Container) AssayAt(i int) (string, *assay.Assay, error) {
	if i < 0 || i >= len(c.names) {
		return "", nil, &errs.NotFoundError{Kind: "assay index", Name: strconv.Itoa(i)}
	}
	return c.names[i], c.assays[c.names[i]], nil
}

// Links exposes the relationship graph. It is immutable.
func (c *Container) Links() *relations.Graph { return c.links }

// AddAssay returns a container that also holds a under name.
func (c *Container) AddAssay(name string, a *assay.Assay) (*Container, error) {
	if err := c.checkNewName(name); err != nil {
		return nil, err
	}

	out := c.clone()
	out.names = append(out.names, name)
	out.assays[name] = a
	out.samples = unionSamples(out.names, out.assays)

	c.log.Printf("Added assay %s (%d features x %d samples)\n", name, a.NRow(), a.NCol())

	return out, nil
}

// ErrEmptyName is returned when a new assay would have no name.
var ErrEmptyName = errors.New("assay name must not be empty")

func (c *Container) checkNewName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := c.assays[name]; exists {
		return &errs.DuplicateNameError{Kind: "assay", Name: name}
	}
	return nil
}

// AddMatrix builds an assay from its parts and adds it.
func (c *Container) AddMatrix(name string, rowIDs, colIDs []string, rows [][]float64, rowData, colData *table.Table) (*Container, error) {
	a, err := assay.New(rowIDs, colIDs, rows, rowData, colData)
	if err != nil {
		return nil, err
	}
	return c.AddAssay(name, a)
}

// RemoveAssay drops an assay. Assays that were built from it would be left
// pointing at nothing, so removal is refused with a *errs.HasDependentsError
// when any exist; use RemoveAssayCascade to drop them too. Removing a derived
// assay drops the link into it.
func (c *Container) RemoveAssay(name string) (*Container, error) {
	if _, ok := c.assays[name]; !ok {
		return nil, &errs.NotFoundError{Kind: "assay", Name: name}
	}
	if derived := c.links.Derived(name); len(derived) > 0 {
		return nil, &errs.HasDependentsError{Assay: name, Dependents: derived}
	}
	return c.without(name), nil
}

// RemoveAssayCascade drops an assay together with every assay built from it,
// directly or transitively.
func (c *Container) RemoveAssayCascade(name string) (*Container, error) {
	if _, ok := c.assays[name]; !ok {
		return nil, &errs.NotFoundError{Kind: "assay", Name: name}
	}
	drop := append([]string{name}, c.links.Derived(name)...)
	return c.without(drop...), nil
}

func (c *Container) without(drop ...string) *Container {
	out := c.clone()
	gone := make(map[string]bool, len(drop))
	for _, name := range drop {
		gone[name] = true
		delete(out.assays, name)
		out.links = out.links.Without(name)
		c.log.Println("Removed assay", name)
	}

	names := out.names[:0]
	for _, n := range out.names {
		if !gone[n] {
			names = append(names, n)
		}
	}
	out.names = names
	out.samples = unionSamples(out.names, out.assays)

	return out
}

func unionSamples(names []string, assays map[string]*assay.Assay) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, n := range names {
		for _, s := range assays[n].ColIDs() {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// SampleIDs lists every sample of every assay, first seen first.
func (c *Container) SampleIDs() []string { return append([]string(nil), c.samples...) }

// SampleColumn names the sample identifier column of ColData.
const SampleColumn = "sample"

// WithColData attaches a sample annotation table. idColumn identifies the
// sample each row describes; identifiers must be unique.
func (c *Container) WithColData(t *table.Table, idColumn string) (*Container, error) {
	col, ok := t.Column(idColumn)
	if !ok {
		return nil, &errs.MissingColumnError{Column: idColumn}
	}

	ids := make(map[string]int, t.NRow())
	for i := 0; i < t.NRow(); i++ {
		id := col.Key(i)
		if _, exists := ids[id]; exists {
			return nil, &errs.DuplicateNameError{Kind: "sample", Name: id}
		}
		ids[id] = i
	}

	keep := make([]string, 0, t.NCol())
	for _, n := range t.Names() {
		if n != idColumn {
			keep = append(keep, n)
		}
	}
	annot, err := t.Select(keep...)
	if err != nil {
		return nil, err
	}

	out := c.clone()
	out.annot = annot
	out.annotIDs = ids
	return out, nil
}

// ColData returns one row per SampleIDs entry: the sample identifier in
// column SampleColumn, followed by any attached annotation. Samples without
// an annotation row get nulls.
func (c *Container) ColData() *table.Table {
	idCol := table.StringColumn(SampleColumn, c.samples)
	if c.annot == nil {
		t, _ := table.New(len(c.samples), idCol)
		return t
	}

	idx := make([]int, len(c.samples))
	for i, s := range c.samples {
		j, ok := c.annotIDs[s]
		if !ok {
			j = -1
		}
		idx[i] = j
	}
	aligned := c.annot.Subset(idx)

	cols := []*table.Column{idCol}
	for i := 0; i < aligned.NCol(); i++ {
		if aligned.ColumnAt(i).Name() == SampleColumn {
			continue
		}
		cols = append(cols, aligned.ColumnAt(i))
	}
	t, _ := table.New(len(c.samples), cols...)
	return t
}

// Link records an existing edge between two assays of the container, such as
// one read back from a snapshot. Every row the edge names must exist in its
// assays unless rows have ever been removed from the container.
func (c *Container) Link(e *relations.Edge) (*Container, error) {
	child, err := c.Assay(e.Child)
	if err != nil {
		return nil, err
	}
	parent, err := c.Assay(e.Parent)
	if err != nil {
		return nil, err
	}
	if !c.pruned {
		for _, g := range e.Groups() {
			if _, ok := parent.RowIndex(g.Parent); !ok {
				return nil, &errs.NotFoundError{Kind: "feature in " + e.Parent, Name: g.Parent}
			}
			for _, row := range g.Children {
				if _, ok := child.RowIndex(row); !ok {
					return nil, &errs.NotFoundError{Kind: "feature in " + e.Child, Name: row}
				}
			}
		}
	}

	links, err := c.links.With(e)
	if err != nil {
		return nil, err
	}
	out := c.clone()
	out.links = links
	return out, nil
}

// MarkFiltered returns a copy of c that reports the Filtered state. It does
// not relax Link; see MarkPruned.
func (c *Container) MarkFiltered() *Container {
	out := c.clone()
	out.filtered = true
	return out
}

// Pruned reports whether rows have been removed from c or from any container
// it was derived from. Unlike State it survives later aggregations.
func (c *Container) Pruned() bool { return c.pruned }

// MarkPruned returns a copy of c whose links may name rows that are gone.
func (c *Container) MarkPruned() *Container {
	out := c.clone()
	out.pruned = true
	return out
}
