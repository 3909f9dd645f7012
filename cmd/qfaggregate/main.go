// qfaggregate reads a table of quantified features, rolls it up through one or
// more levels (e.g. PSMs to peptides to proteins) and writes the resulting
// container to a SQLite snapshot, a long CSV and/or BigQuery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/adjacency"
	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/bqexport"
	_ "github.com/carbocation/qfeatures/compileinfoprint"
	"github.com/carbocation/qfeatures/importer"
	"github.com/carbocation/qfeatures/missing"
	"github.com/carbocation/qfeatures/normalize"
	"github.com/carbocation/qfeatures/predicate"
	"github.com/carbocation/qfeatures/reduce"
	"github.com/carbocation/qfeatures/sqlitestore"
)

type Options struct {
	Input      string
	AssayName  string
	Layout     string
	IDColumn   string
	Prefix     string
	XLSSheet   int
	ColData    string
	ColDataID  string
	Steps      string
	Reduce     string
	NARm       bool
	Workers    int
	Filter     string
	KeepNA     bool
	ZeroIsNA   bool
	FilterNA   float64
	Impute     string
	Normalize  string
	Components string
	Separator  string
	SQLite     string
	LongCSV    string
	BQProject  string
	BQDataset  string
	BQTable    string
}

func main() {
	var o Options
	flag.StringVar(&o.Input, "input", "", "Path to a delimited (optionally compressed) or .xls table of features. May be a Google Storage URL (gs://).")
	flag.StringVar(&o.AssayName, "assay", "psms", "Name of the assay read from -input.")
	flag.StringVar(&o.Layout, "layout", "", fmt.Sprintf("(Optional) Preset describing the input columns. One of: %s", importer.LayoutNames()))
	flag.StringVar(&o.IDColumn, "id", "", "(Optional) Column holding feature identifiers. Overrides the layout.")
	flag.StringVar(&o.Prefix, "prefix", "", "(Optional) Prefix of the quantitation columns. Overrides the layout.")
	flag.IntVar(&o.XLSSheet, "sheet", 0, "Sheet to read when -input is an .xls file.")
	flag.StringVar(&o.ColData, "coldata", "", "(Optional) Delimited table annotating the samples.")
	flag.StringVar(&o.ColDataID, "coldata-id", "sample", "Column of -coldata holding sample names.")
	flag.StringVar(&o.Steps, "steps", "", "Comma-separated column:name aggregation steps, e.g. Sequence:peptides,Protein:proteins")
	flag.StringVar(&o.Reduce, "reduce", "medianpolish", fmt.Sprintf("Reduction applied at each step. One of: %s", reduce.NameList()))
	flag.BoolVar(&o.NARm, "na-rm", true, "Ignore missing values when reducing.")
	flag.IntVar(&o.Workers, "workers", 0, "Groups reduced concurrently. 0 means one per CPU.")
	flag.StringVar(&o.Filter, "filter", "", "(Optional) Row filter applied before aggregating, e.g. 'pval < 0.05'")
	flag.BoolVar(&o.KeepNA, "keep-missing", false, "Keep rows whose filter result is missing.")
	flag.BoolVar(&o.ZeroIsNA, "zero-na", false, "Treat zero quantitations as missing.")
	flag.Float64Var(&o.FilterNA, "filter-na", 1, "Drop features whose proportion of missing quantitations exceeds this.")
	flag.StringVar(&o.Impute, "impute", "", fmt.Sprintf("(Optional) Imputation applied before aggregating. One of: %s", methodNames(missing.Methods)))
	flag.StringVar(&o.Normalize, "normalize", "", fmt.Sprintf("(Optional) Comma-separated normalisations applied to the last assay, each added as a new assay. Of: %s", methodNames(normalize.Methods)))
	flag.StringVar(&o.Components, "components", "", "(Optional) Protein column from which to derive connected protein groups. Adds a 'component' column that steps may aggregate on.")
	flag.StringVar(&o.Separator, "sep", ";", "Separator of the protein names in -components.")
	flag.StringVar(&o.SQLite, "sqlite", "", "(Optional) Path of a SQLite snapshot to write.")
	flag.StringVar(&o.LongCSV, "long", "", "(Optional) Path of a long-form CSV to write.")
	flag.StringVar(&o.BQProject, "project", "", "(Optional) BigQuery project for long-form upload.")
	flag.StringVar(&o.BQDataset, "dataset", "", "BigQuery dataset.")
	flag.StringVar(&o.BQTable, "table", "", "BigQuery table.")
	flag.Parse()

	if o.Input == "" {
		flag.PrintDefaults()
		return
	}

	if err := run(context.Background(), o); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, o Options) error {
	logger := log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime)

	cfg, err := config(o)
	if err != nil {
		return err
	}

	steps, err := ParseSteps(o.Steps)
	if err != nil {
		return err
	}

	f, err := reduce.Lookup(o.Reduce, o.NARm)
	if err != nil {
		return err
	}

	var sclient *storage.Client
	if strings.HasPrefix(o.Input, "gs://") || strings.HasPrefix(o.ColData, "gs://") {
		sclient, err = storage.NewClient(ctx)
		if err != nil {
			return err
		}
		defer sclient.Close()
	}

	a, err := readInput(ctx, o, sclient, cfg)
	if err != nil {
		return err
	}
	logger.Printf("Read %d features across %d samples from %s\n", a.NRow(), a.NCol(), o.Input)

	if o.Components != "" {
		if a, err = adjacency.Annotate(a, o.Components, o.Separator, "component"); err != nil {
			return err
		}
	}

	c, err := qfeatures.New(qfeatures.WithLogger(logger)).AddAssay(o.AssayName, a)
	if err != nil {
		return err
	}

	if o.ColData != "" {
		if c, err = attachColData(ctx, c, o, sclient); err != nil {
			return err
		}
	}

	if c, err = prepare(c, o); err != nil {
		return err
	}

	from := o.AssayName
	for _, s := range steps {
		c, err = c.Aggregate(ctx, qfeatures.AggregateOptions{
			From:    from,
			Column:  s.Column,
			To:      s.To,
			Reduce:  f,
			Workers: o.Workers,
		})
		if err != nil {
			return err
		}
		from = s.To
	}

	if o.Normalize != "" {
		for _, name := range strings.Split(o.Normalize, ",") {
			fn, exists := normalize.Methods[name]
			if !exists {
				return fmt.Errorf("Normalisation %s is not found. Valid names include: %s", name, methodNames(normalize.Methods))
			}
			to := from + "." + name
			if c, err = c.Transform(from, to, fn); err != nil {
				return err
			}
			from = to
		}
	}

	logger.Println(c.State())

	return write(ctx, c, o)
}

func config(o Options) (importer.Config, error) {
	var cfg importer.Config
	if o.Layout != "" {
		l, err := importer.Layout(o.Layout)
		if err != nil {
			return cfg, err
		}
		cfg = l
	}
	if o.IDColumn != "" {
		cfg.IDColumn = o.IDColumn
	}
	if o.Prefix != "" {
		cfg.QuantPrefix = o.Prefix
	}
	if cfg.QuantPrefix == "" && len(cfg.QuantColumns) == 0 {
		return cfg, fmt.Errorf("neither -layout nor -prefix says which columns hold quantitations")
	}
	return cfg, nil
}

func readInput(ctx context.Context, o Options, client *storage.Client, cfg importer.Config) (*assay.Assay, error) {
	if strings.HasSuffix(strings.ToLower(o.Input), ".xls") {
		return importer.ReadXLS(o.Input, o.XLSSheet, cfg)
	}
	return importer.ReadFile(ctx, o.Input, client, cfg)
}

func attachColData(ctx context.Context, c *qfeatures.Container, o Options, client *storage.Client) (*qfeatures.Container, error) {
	rc, err := importer.Open(ctx, o.ColData, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := importer.ReadColData(rc, o.ColDataID, 0)
	if err != nil {
		return nil, err
	}
	return c.WithColData(t, o.ColDataID)
}

// prepare runs the steps that act on the input assay before any aggregation.
func prepare(c *qfeatures.Container, o Options) (*qfeatures.Container, error) {
	var err error

	if o.ZeroIsNA {
		if c, err = c.Replace(o.AssayName, missing.ZeroIsNA); err != nil {
			return nil, err
		}
	}

	if o.FilterNA < 1 {
		if c, err = missing.FilterNA(c, o.AssayName, o.FilterNA); err != nil {
			return nil, err
		}
	}

	if o.Filter != "" {
		p, err := predicate.ParseCached(o.Filter)
		if err != nil {
			return nil, err
		}
		if c, err = c.Filter(p, qfeatures.FilterOptions{KeepMissing: o.KeepNA}); err != nil {
			return nil, err
		}
	}

	if o.Impute != "" {
		m, exists := missing.Methods[o.Impute]
		if !exists {
			return nil, fmt.Errorf("Imputation %s is not found. Valid names include: %s", o.Impute, methodNames(missing.Methods))
		}
		if c, err = missing.Impute(c, o.AssayName, m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func write(ctx context.Context, c *qfeatures.Container, o Options) error {
	if o.SQLite != "" {
		db, err := sqlitestore.Open(o.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := sqlitestore.Save(db, c); err != nil {
			return err
		}
	}

	if o.LongCSV == "" && o.BQProject == "" {
		return nil
	}

	records, err := c.LongForm()
	if err != nil {
		return err
	}

	if o.LongCSV != "" {
		f, err := os.Create(o.LongCSV)
		if err != nil {
			return err
		}
		if err := qfeatures.WriteLongCSV(f, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if o.BQProject != "" {
		if o.BQDataset == "" || o.BQTable == "" {
			return fmt.Errorf("-project requires -dataset and -table")
		}
		client, err := bigquery.NewClient(ctx, o.BQProject)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := bqexport.Upload(ctx, client, o.BQDataset, o.BQTable, records); err != nil {
			return err
		}
	}

	return nil
}
