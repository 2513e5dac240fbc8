package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"tradejournal/internal/journal"
)

func DecodeCSV(data []byte) ([]journal.RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ingest: empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	idx, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []journal.RawRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read row %d: %w", line+1, err)
		}
		line++
		if skippable(record) {
			continue
		}
		rows = append(rows, rawRow(record, idx, line))
	}
	return rows, nil
}
