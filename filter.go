package qfeatures

import (
	"strings"

	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/predicate"
	"github.com/carbocation/qfeatures/table"
)

type FilterOptions struct {
	// KeepMissing keeps rows for which the predicate cannot be decided
	// because a referenced cell is null. By default they are dropped.
	KeepMissing bool
}

// FilterExpr parses expr and filters with it. Nothing is cached, so expr may
// come from untrusted input.
func (c *Container) FilterExpr(expr string, opts FilterOptions) (*Container, error) {
	p, err := predicate.Parse(expr)
	if err != nil {
		return nil, err
	}
	return c.Filter(p, opts)
}

// Filter keeps the rows of each assay that satisfy p. An assay is only
// filtered when its row metadata has every column p refers to; other assays
// are carried over untouched. Links between assays are kept, and lookups
// across them skip rows that were filtered out.
func (c *Container) Filter(p predicate.Predicate, opts FilterOptions) (*Container, error) {
	cols := p.Columns()

	// Every referenced column must exist somewhere, and comparisons must
	// suit the column kind wherever the predicate applies.
	seen := make(map[string]bool, len(cols))
	var targets []string
	for _, name := range c.names {
		rd := c.assays[name].RowData()
		applies := true
		for _, col := range cols {
			if rd.Has(col) {
				seen[col] = true
			} else {
				applies = false
			}
		}
		if !applies {
			continue
		}
		if err := p.Check(kindsOf(rd)); err != nil {
			return nil, err
		}
		targets = append(targets, name)
	}
	for _, col := range cols {
		if !seen[col] {
			return nil, &errs.InvalidPredicateError{Expr: p.String(), Reason: "column " + col + " is not in the row data of any assay"}
		}
	}
	if len(targets) == 0 && len(c.names) > 0 {
		return nil, &errs.InvalidPredicateError{Expr: p.String(), Reason: "no assay has all of the columns " + strings.Join(cols, ", ")}
	}

	out := c.clone()
	for _, name := range targets {
		a := c.assays[name]
		keep, err := matching(a, p, opts.KeepMissing)
		if err != nil {
			return nil, err
		}
		if len(keep) == a.NRow() {
			continue
		}
		out.assays[name] = a.Subset(keep)
		out.pruned = true
		c.log.Printf("Filter %s kept %d of %d features of %s\n", p, len(keep), a.NRow(), name)
	}
	out.filtered = true

	return out, nil
}

func kindsOf(t *table.Table) func(string) (table.Kind, bool) {
	return func(column string) (table.Kind, bool) {
		col, ok := t.Column(column)
		if !ok {
			return 0, false
		}
		return col.Kind(), true
	}
}

func matching(a *assay.Assay, p predicate.Predicate, keepMissing bool) ([]int, error) {
	rd := a.RowData()
	keep := make([]int, 0, a.NRow())
	for i := 0; i < a.NRow(); i++ {
		i := i
		t, err := p.Eval(func(column string) (table.Cell, bool) {
			return rd.Cell(column, i)
		})
		if err != nil {
			return nil, err
		}
		if t == predicate.True || (t == predicate.Missing && keepMissing) {
			keep = append(keep, i)
		}
	}
	return keep, nil
}
