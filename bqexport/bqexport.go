// Package bqexport streams the long form of a container into a BigQuery
// table, one row per quantitation.
package bqexport

import (
	"context"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"github.com/carbocation/qfeatures"
	"google.golang.org/api/googleapi"
)

// BatchSize is the number of rows sent per streaming insert.
const BatchSize = 500

type Row struct {
	Assay   string               `bigquery:"assay"`
	Feature string               `bigquery:"feature"`
	Sample  string               `bigquery:"sample"`
	Value   bigquery.NullFloat64 `bigquery:"value"`
}

func Rows(records []qfeatures.LongRecord) []*Row {
	out := make([]*Row, len(records))
	for i, r := range records {
		out[i] = &Row{
			Assay:   r.Assay,
			Feature: r.Row,
			Sample:  r.Sample,
			Value:   bigquery.NullFloat64{Float64: r.Value.Float64, Valid: r.Value.Valid},
		}
	}
	return out
}

func Schema() (bigquery.Schema, error) {
	return bigquery.InferSchema(Row{})
}

// Upload appends records to dataset.table, creating the table if it does not
// exist yet.
func Upload(ctx context.Context, client *bigquery.Client, dataset, table string, records []qfeatures.LongRecord) error {
	t := client.Dataset(dataset).Table(table)

	if _, err := t.Metadata(ctx); err != nil {
		var gerr *googleapi.Error
		if !errors.As(err, &gerr) || gerr.Code != http.StatusNotFound {
			return pfx.Err(err)
		}

		schema, err := Schema()
		if err != nil {
			return pfx.Err(err)
		}
		if err := t.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return pfx.Err(err)
		}
	}

	rows := Rows(records)
	inserter := t.Inserter()
	for start := 0; start < len(rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
