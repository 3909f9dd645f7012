// Package qfeatures holds quantitative proteomics data as a set of named
// assays, such as PSMs, peptides and proteins, and records how the rows of
// each coarser assay were built from the rows of a finer one.
//
// A typical pipeline imports a PSM table, aggregates it to peptides and then
// to proteins, filters out contaminants, and asks which PSMs support a given
// protein:
//
//	c, _ := qfeatures.New().AddAssay("psms", psms)
//	c, _ = c.Aggregate(ctx, qfeatures.AggregateOptions{From: "psms", Column: "Sequence", To: "peptides"})
//	c, _ = c.Aggregate(ctx, qfeatures.AggregateOptions{From: "peptides", Column: "Protein", To: "proteins"})
//	c, _ = c.FilterExpr(`Reverse != "+"`, qfeatures.FilterOptions{})
//	rel, _ := c.RowsRelatedTo("proteins", "P12345", relations.Descendants)
//
// Containers are immutable. Every operation returns a new Container and leaves
// its receiver untouched, including when it fails.
package qfeatures
