// qfdescribe prints what a SQLite snapshot written by qfaggregate contains:
// its assays, how they were derived from one another, and per-sample
// summaries of their quantitations.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/qfeatures"
	_ "github.com/carbocation/qfeatures/compileinfoprint"
	"github.com/carbocation/qfeatures/sqlitestore"
)

func main() {
	var (
		dbPath    string
		assayName string
		hist      bool
		buckets   int
	)
	flag.StringVar(&dbPath, "db", "", "Path to a SQLite snapshot.")
	flag.StringVar(&assayName, "assay", "", "(Optional) Only describe this assay.")
	flag.BoolVar(&hist, "hist", false, "Also print a histogram of each assay's quantitations.")
	flag.IntVar(&buckets, "buckets", 25, "Histogram buckets.")
	flag.Parse()

	if dbPath == "" {
		flag.PrintDefaults()
		return
	}

	db, err := sqlitestore.Open(dbPath)
	if err != nil {
		log.Fatalln(err)
	}
	defer db.Close()

	c, err := sqlitestore.Load(db)
	if err != nil {
		log.Fatalln(err)
	}

	names := c.Names()
	if assayName != "" {
		if !c.Has(assayName) {
			log.Fatalf("Assay %s is not in %s. Assays include: %v\n", assayName, dbPath, names)
		}
		names = []string{assayName}
	}

	if err := describe(os.Stdout, c, names, hist, buckets); err != nil {
		log.Fatalln(err)
	}
}

func describe(w io.Writer, c *qfeatures.Container, names []string, hist bool, buckets int) error {
	fmt.Fprintf(w, "State: %s, %d assays, %d samples\n", c.State(), c.Len(), len(c.SampleIDs()))

	for _, e := range c.Links().Edges() {
		if e.Identity() {
			fmt.Fprintf(w, "%s -> %s (one to one)\n", e.Child, e.Parent)
			continue
		}
		fmt.Fprintf(w, "%s -> %s by %s\n", e.Child, e.Parent, e.Column)
	}

	for _, name := range names {
		a, err := c.Assay(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\n%s: %d rows x %d samples, %d missing\n", name, a.NRow(), a.NCol(), a.CountNaN())

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "sample\tn\tmissing\tmean\tsd\tmin\tmax")
		for _, s := range a.ColumnSummaries() {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.5g\t%.5g\t%.5g\t%.5g\n", s.Sample, s.N, s.Missing, s.Mean, s.SD, s.Min, s.Max)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if !hist {
			continue
		}

		var observed []float64
		for _, v := range a.Values() {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			continue
		}
		if err := histogram.Fprint(w, histogram.Hist(buckets, observed), histogram.Linear(5)); err != nil {
			return err
		}
	}

	return nil
}
