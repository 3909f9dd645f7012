// Package importer reads delimited text and spreadsheet tables into assays.
//
// A table has one header row and one row per feature. Columns holding
// quantitations become the assay's samples and every other column becomes
// row metadata, with its type inferred from its values.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
)

// Config says how to split a table into quantitations and metadata.
type Config struct {
	// IDColumn holds the feature identifiers. If empty, or for rows where it
	// is empty, features are named row1, row2, ... by their position.
	IDColumn string

	// QuantColumns names the quantitation columns explicitly. Otherwise every
	// column whose name starts with QuantPrefix is one, and the sample is
	// named by what follows the prefix.
	QuantColumns []string
	QuantPrefix  string

	// Delimiter of zero means guess it.
	Delimiter rune
	Comment   rune
}

var Layouts = map[string]Config{
	"maxquant-proteins": {
		IDColumn:    "Protein IDs",
		QuantPrefix: "Intensity ",
		Delimiter:   '\t',
	},
	"maxquant-peptides": {
		IDColumn:    "Sequence",
		QuantPrefix: "Intensity ",
		Delimiter:   '\t',
	},
	"maxquant-tmt": {
		IDColumn:    "id",
		QuantPrefix: "Reporter intensity corrected ",
		Delimiter:   '\t',
	},
	"psm": {
		QuantPrefix: "Intensity.",
		Comment:     '#',
	},
}

// LayoutNames lists the preset layouts, sorted.
func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Layout looks up a preset by name.
func Layout(name string) (Config, error) {
	l, exists := Layouts[name]
	if !exists {
		return Config{}, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", name, LayoutNames())
	}
	return l, nil
}

func readRecords(r io.Reader, delimiter, comment rune) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	if delimiter == 0 {
		delimiter = sniff(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.Comment = comment
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("table has no header row")
	}

	return records[0], records[1:], nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return -1, &errs.MissingColumnError{Column: name}
}

func columnValues(body [][]string, i int) []string {
	out := make([]string, len(body))
	for r, rec := range body {
		out[r] = rec[i]
	}
	return out
}

// Read parses one table into an assay.
func Read(r io.Reader, cfg Config) (*assay.Assay, error) {
	header, body, err := readRecords(r, cfg.Delimiter, cfg.Comment)
	if err != nil {
		return nil, err
	}

	var quant []int
	var samples []string
	switch {
	case len(cfg.QuantColumns) > 0:
		for _, name := range cfg.QuantColumns {
			i, err := columnIndex(header, name)
			if err != nil {
				return nil, err
			}
			quant = append(quant, i)
			samples = append(samples, name)
		}
	case cfg.QuantPrefix != "":
		for i, h := range header {
			if strings.HasPrefix(h, cfg.QuantPrefix) && len(h) > len(cfg.QuantPrefix) {
				quant = append(quant, i)
				samples = append(samples, strings.TrimPrefix(h, cfg.QuantPrefix))
			}
		}
	}
	if len(quant) == 0 {
		return nil, fmt.Errorf("no quantitation columns found (names %v, prefix %q)", cfg.QuantColumns, cfg.QuantPrefix)
	}

	idCol := -1
	if cfg.IDColumn != "" {
		if idCol, err = columnIndex(header, cfg.IDColumn); err != nil {
			return nil, err
		}
	}

	isQuant := make(map[int]bool, len(quant))
	for _, i := range quant {
		isQuant[i] = true
	}

	rowIDs := make([]string, len(body))
	rows := make([][]float64, len(body))
	for r, rec := range body {
		if idCol >= 0 {
			rowIDs[r] = strings.TrimSpace(rec[idCol])
		}
		if rowIDs[r] == "" {
			rowIDs[r] = "row" + strconv.Itoa(r+1)
		}

		rows[r] = make([]float64, len(quant))
		for k, i := range quant {
			v, err := parseQuant(rec[i])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", r+2, header[i], err)
			}
			rows[r][k] = v
		}
	}

	var cols []*table.Column
	for i, h := range header {
		if isQuant[i] {
			continue
		}
		cols = append(cols, table.InferColumn(h, columnValues(body, i)))
	}
	rowData, err := table.New(len(body), cols...)
	if err != nil {
		return nil, err
	}

	colData, err := table.New(len(samples), table.StringColumn("column", headerNames(header, quant)))
	if err != nil {
		return nil, err
	}

	return assay.New(rowIDs, samples, rows, rowData, colData)
}

func headerNames(header []string, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = header[i]
	}
	return out
}

func parseQuant(s string) (float64, error) {
	if table.IsNA(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ReadColData parses a sample annotation table. idColumn is kept as text;
// every other column has its type inferred.
func ReadColData(r io.Reader, idColumn string, delimiter rune) (*table.Table, error) {
	header, body, err := readRecords(r, delimiter, 0)
	if err != nil {
		return nil, err
	}
	if _, err := columnIndex(header, idColumn); err != nil {
		return nil, err
	}

	cols := make([]*table.Column, len(header))
	for i, h := range header {
		values := columnValues(body, i)
		if h == idColumn {
			cols[i] = table.StringColumn(h, values)
			continue
		}
		cols[i] = table.InferColumn(h, values)
	}
	return table.New(len(body), cols...)
}

// Open returns the decompressed contents of a local file or, when client is
// non-nil, a gs:// object. gzip, zip, xz, bzip2 and zlib inputs are
// recognised by their leading bytes.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	rs, err := openSeeker(ctx, path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}
	rc, err := MaybeDecompress(rs)
	if err != nil {
		rs.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return rc, nil
}

// ReadFile opens path as Open does and reads it with cfg.
func ReadFile(ctx context.Context, path string, client *storage.Client, cfg Config) (*assay.Assay, error) {
	rc, err := Open(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	a, err := Read(rc, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}
