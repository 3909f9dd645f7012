package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/carbocation/qfeatures/assay"
	"github.com/extrame/xls"
)

// ReadXLS reads one sheet of a legacy Excel workbook. The first row is the
// header. cfg.Delimiter and cfg.Comment are ignored.
func ReadXLS(path string, sheet int, cfg Config) (*assay.Assay, error) {
	spreadsheet, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	if sheet < 0 || sheet >= spreadsheet.NumSheets() {
		return nil, fmt.Errorf("%s: sheet %d requested but the workbook has %d", path, sheet, spreadsheet.NumSheets())
	}
	ws := spreadsheet.GetSheet(sheet)
	if ws == nil {
		return nil, fmt.Errorf("%s: sheet %d was nil", path, sheet)
	}

	var records [][]string
	width := 0
	for rowID := 0; rowID <= int(ws.MaxRow); rowID++ {
		row := ws.Row(rowID)
		if row == nil {
			continue
		}
		var rec []string
		for colID := 0; colID <= row.LastCol(); colID++ {
			rec = append(rec, row.Col(colID))
		}
		if rowID == 0 {
			width = len(rec)
		}
		records = append(records, rec)
	}

	// Sheets often have ragged trailing cells; square them off to the header.
	for i, rec := range records {
		for len(rec) < width {
			rec = append(rec, "")
		}
		records[i] = rec[:width]
	}

	// Reuse the delimited text path so both inputs are interpreted alike.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, pfx.Err(err)
	}
	cfg.Delimiter, cfg.Comment = ',', 0

	return Read(&buf, cfg)
}
