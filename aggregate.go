package qfeatures

import (
	"context"
	"runtime"

	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/reduce"
	"github.com/carbocation/qfeatures/relations"
	"github.com/carbocation/qfeatures/table"
	"golang.org/x/sync/errgroup"
)

// CountColumn is added to every aggregated assay's row metadata and holds the
// number of source rows combined into each row.
const CountColumn = ".n"

// AggregateOptions describes one aggregation step.
type AggregateOptions struct {
	From   string // source assay
	Column string // grouping column in From's row metadata
	To     string // name of the new assay

	// Reduce combines the rows of a group. Defaults to
	// reduce.MedianPolish(true).
	Reduce reduce.Func

	// Workers bounds how many groups are reduced concurrently. Zero means
	// runtime.NumCPU(). Output order never depends on it.
	Workers int
}

// Aggregate groups the rows of From by Column and reduces every group into
// one row of a new assay To. Groups appear in the order their key is first
// seen in From. The new assay's row metadata carries every From column whose
// value is constant within each group (the grouping column always is),
// followed by CountColumn. The link from From to To is recorded.
func (c *Container) Aggregate(ctx context.Context, opts AggregateOptions) (*Container, error) {
	src, err := c.Assay(opts.From)
	if err != nil {
		return nil, err
	}
	if err := c.checkNewName(opts.To); err != nil {
		return nil, err
	}

	keys, members, err := relations.GroupRows(opts.From, src, opts.Column)
	if err != nil {
		return nil, err
	}

	fn := opts.Reduce
	if fn == nil {
		fn = reduce.MedianPolish(true)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Each group writes only its own slot, so the result is ordered by key
	// regardless of scheduling.
	rows := make([][]float64, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := range keys {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			group := make([][]float64, len(members[k]))
			for m, i := range members[k] {
				group[m] = src.Row(i)
			}
			out, err := fn(group)
			if err != nil {
				return err
			}
			if len(out) != src.NCol() {
				return &errs.ShapeMismatchError{What: "reduced row for " + keys[k], Got: len(out), Want: src.NCol()}
			}
			rows[k] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rowData, err := aggregateRowData(src.RowData(), members)
	if err != nil {
		return nil, err
	}

	agg, err := assay.New(keys, src.ColIDs(), rows, rowData, src.ColData())
	if err != nil {
		return nil, err
	}

	links, err := c.links.With(relations.NewEdge(opts.From, opts.To, opts.Column, src, keys, members))
	if err != nil {
		return nil, err
	}

	out := c.clone()
	out.names = append(out.names, opts.To)
	out.assays[opts.To] = agg
	out.links = links
	out.filtered = false
	out.samples = unionSamples(out.names, out.assays)

	c.log.Printf("Aggregated %d features of %s into %d features of %s by %s\n", src.NRow(), opts.From, len(keys), opts.To, opts.Column)

	return out, nil
}

func aggregateRowData(src *table.Table, members [][]int) (*table.Table, error) {
	first := make([]int, len(members))
	counts := make([]int64, len(members))
	for k, m := range members {
		first[k] = m[0]
		counts[k] = int64(len(m))
	}

	var cols []*table.Column
Columns:
	for i := 0; i < src.NCol(); i++ {
		col := src.ColumnAt(i)
		if col.Name() == CountColumn {
			continue
		}
		for _, m := range members {
			if !col.ConstantWithin(m) {
				continue Columns
			}
		}
		cols = append(cols, col.Subset(first))
	}
	cols = append(cols, table.IntColumn(CountColumn, counts))

	return table.New(len(members), cols...)
}
