package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"tradejournal/internal/journal"
)

// DecodeXLSX reads the first sheet of a workbook; row 1 is the header.
func DecodeXLSX(data []byte) ([]journal.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ingest: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ingest: workbook has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("ingest: empty sheet %q", sheets[0])
	}

	idx, err := mapHeader(cells[0])
	if err != nil {
		return nil, err
	}

	var rows []journal.RawRow
	for i, record := range cells[1:] {
		if skippable(record) {
			continue
		}
		rows = append(rows, rawRow(record, idx, i+2))
	}
	return rows, nil
}
