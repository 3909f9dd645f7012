package qfeatures

import (
	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/relations"
	"gonum.org/v1/gonum/mat"
)

// TransformFunc computes new quantitations for an assay. The result must have
// the same shape as the input. It may be nil only for an empty assay.
type TransformFunc func(a *assay.Assay) (*mat.Dense, error)

// Transform adds an assay named to, holding fn applied to from. The new assay
// keeps from's row and column metadata and is linked to it row for row, so
// features can still be traced back through it.
func (c *Container) Transform(from, to string, fn TransformFunc) (*Container, error) {
	src, err := c.Assay(from)
	if err != nil {
		return nil, err
	}
	if err := c.checkNewName(to); err != nil {
		return nil, err
	}

	m, err := fn(src)
	if err != nil {
		return nil, err
	}
	var next *assay.Assay
	if m == nil {
		next, err = src.WithValues(nil)
	} else {
		next, err = src.WithValues(m)
	}
	if err != nil {
		return nil, err
	}

	links, err := c.links.With(relations.NewIdentityEdge(from, to, src.RowIDs()))
	if err != nil {
		return nil, err
	}

	out := c.clone()
	out.names = append(out.names, to)
	out.assays[to] = next
	out.links = links
	out.filtered = false

	c.log.Printf("Transformed %s into %s\n", from, to)

	return out, nil
}

// Replace swaps the quantitations of an existing assay in place, keeping its
// metadata and links. Use it for steps such as imputation that should not
// add a level to the container.
func (c *Container) Replace(name string, fn TransformFunc) (*Container, error) {
	src, err := c.Assay(name)
	if err != nil {
		return nil, err
	}
	m, err := fn(src)
	if err != nil {
		return nil, err
	}
	var next *assay.Assay
	if m == nil {
		next, err = src.WithValues(nil)
	} else {
		next, err = src.WithValues(m)
	}
	if err != nil {
		return nil, err
	}

	out := c.clone()
	out.assays[name] = next
	return out, nil
}
