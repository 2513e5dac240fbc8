// Package ingest decodes uploaded trade exports (CSV or XLSX) into raw rows
// for the journal normalizer. Header matching is case-insensitive and
// tolerant of underscores; a missing required column is a schema error that
// aborts the whole upload.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"tradejournal/internal/journal"
)

const (
	colDate     = "date"
	colName     = "name"
	colAction   = "action"
	colQuantity = "quantity"
	colPrice    = "price"
	colValue    = "value"
	colPnL      = "total position pnl"
	colRatio    = "ratio"
	colNotes    = "notes"
)

var requiredColumns = []string{colDate, colName, colAction, colQuantity, colPrice, colValue, colPnL}

// Decode picks a decoder from the file extension.
func Decode(filename string, data []byte) ([]journal.RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return DecodeCSV(data)
	case ".xlsx", ".xlsm":
		return DecodeXLSX(data)
	}
	return nil, fmt.Errorf("ingest: unsupported file type %q", filepath.Ext(filename))
}

// mapHeader resolves column positions. Unknown extra columns are ignored;
// a missing required column fails with journal.SchemaError.
func mapHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[canonical(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &journal.SchemaError{Column: col}
		}
	}
	return idx, nil
}

func canonical(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func rawRow(row []string, idx map[string]int, line int) journal.RawRow {
	return journal.RawRow{
		Line:     line,
		Date:     cell(row, idx, colDate),
		Name:     cell(row, idx, colName),
		Action:   cell(row, idx, colAction),
		Quantity: cell(row, idx, colQuantity),
		Price:    cell(row, idx, colPrice),
		Value:    cell(row, idx, colValue),
		PnL:      cell(row, idx, colPnL),
		Ratio:    cell(row, idx, colRatio),
		Notes:    cell(row, idx, colNotes),
	}
}

func skippable(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
