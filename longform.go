package qfeatures

import (
	"io"
	"math"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// LongRecord is one quantitation: a single cell of one assay.
type LongRecord struct {
	Assay  string
	Row    string
	Sample string
	Value  null.Float
}

// LongForm flattens the named assays, or all of them when none are named,
// into one record per cell, ordered by assay, then row, then sample. Missing
// quantitations have an invalid Value.
func (c *Container) LongForm(names ...string) ([]LongRecord, error) {
	if len(names) == 0 {
		names = c.names
	}

	var out []LongRecord
	for _, name := range names {
		a, err := c.Assay(name)
		if err != nil {
			return nil, err
		}
		rows, cols := a.RowIDs(), a.ColIDs()
		for i, row := range rows {
			for j, sample := range cols {
				v := a.At(i, j)
				out = append(out, LongRecord{
					Assay:  name,
					Row:    row,
					Sample: sample,
					Value:  null.NewFloat(v, !math.IsNaN(v)),
				})
			}
		}
	}

	return out, nil
}

type longCSVRow struct {
	Assay  string `csv:"assay"`
	Row    string `csv:"feature"`
	Sample string `csv:"sample"`
	Value  string `csv:"value"`
}

// WriteLongCSV writes records as comma separated text with a header. Missing
// values are written as NA.
func WriteLongCSV(w io.Writer, records []LongRecord) error {
	rows := make([]*longCSVRow, len(records))
	for i, r := range records {
		v := "NA"
		if r.Value.Valid {
			v = strconv.FormatFloat(r.Value.Float64, 'g', -1, 64)
		}
		rows[i] = &longCSVRow{Assay: r.Assay, Row: r.Row, Sample: r.Sample, Value: v}
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}
	return nil
}
