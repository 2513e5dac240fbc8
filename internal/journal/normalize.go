package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Export timestamp format first, then the legacy master-ledger format, then
// plain dates. The timezone abbreviation is parsed and discarded.
var dateLayouts = []string{
	"02.01.2006 03:04 PM MST",
	"02.01.2006 03:04 PM",
	"02-01-06 15:04",
	"2006-01-02",
	"02.01.2006",
}

var currencyStripper = strings.NewReplacer(
	"₮", "",
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
)

// Issue records one dropped row. Row-level parse failures never abort a batch.
type Issue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Report struct {
	Received int     `json:"received"`
	Accepted int     `json:"accepted"`
	Dropped  []Issue `json:"dropped,omitempty"`
}

// NormalizeBatch cleans a raw upload into ledger-ready records:
// currency fields stripped and coerced, dates truncated to midnight UTC,
// open-position rows (blank PnL) dropped, "nan"-style annotation sentinels
// converted to nil, and duplicate natural keys collapsed keeping the last
// occurrence (exports list amendments in order).
func NormalizeBatch(rows []RawRow) ([]Record, Report) {
	report := Report{Received: len(rows)}
	cleaned := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, reason := normalizeRow(row)
		if reason != "" {
			report.Dropped = append(report.Dropped, Issue{Line: row.Line, Reason: reason})
			continue
		}
		cleaned = append(cleaned, rec)
	}

	deduped := dedupeKeepLast(cleaned)
	report.Accepted = len(deduped)
	return deduped, report
}

func normalizeRow(row RawRow) (Record, string) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return Record{}, fmt.Sprintf("unparseable date %q", strings.TrimSpace(row.Date))
	}

	pnl, err := parseOptionalMoney(row.PnL)
	if err != nil {
		return Record{}, fmt.Sprintf("unparseable pnl %q", strings.TrimSpace(row.PnL))
	}
	if pnl == nil {
		// A fresh export row without a realized PnL is an open position; it
		// carries nothing new and must not clobber a completed entry at the
		// same key.
		return Record{}, "open position (no realized pnl)"
	}

	qty, err := parseMoney(row.Quantity)
	if err != nil {
		return Record{}, fmt.Sprintf("unparseable quantity %q", strings.TrimSpace(row.Quantity))
	}
	price, err := parseMoney(row.Price)
	if err != nil {
		return Record{}, fmt.Sprintf("unparseable price %q", strings.TrimSpace(row.Price))
	}
	value, err := parseMoney(row.Value)
	if err != nil {
		return Record{}, fmt.Sprintf("unparseable value %q", strings.TrimSpace(row.Value))
	}

	return Record{
		Date:     date,
		Name:     strings.TrimSpace(row.Name),
		Action:   strings.TrimSpace(row.Action),
		Quantity: qty,
		Price:    price,
		Value:    value,
		PnL:      pnl,
		Ratio:    CleanAnnotation(row.Ratio),
		Notes:    CleanAnnotation(row.Notes),
	}, ""
}

func dedupeKeepLast(records []Record) []Record {
	lastIdx := make(map[Key]int, len(records))
	for i, r := range records {
		lastIdx[r.Key()] = i
	}
	out := make([]Record, 0, len(lastIdx))
	for i, r := range records {
		if lastIdx[r.Key()] == i {
			out = append(out, r)
		}
	}
	return out
}

// ParseDate tries the accepted export layouts and truncates the result to a
// date-only midnight UTC timestamp.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", s)
}

// parseMoney strips currency symbols and grouping separators and coerces to
// float. An empty value becomes 0.
func parseMoney(raw string) (float64, error) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// parseOptionalMoney is parseMoney with blank meaning absent rather than zero.
func parseOptionalMoney(raw string) (*float64, error) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	f := d.InexactFloat64()
	return &f, nil
}

// CleanAnnotation maps the string sentinels some exports use for missing
// notes ("nan", "<NA>", empty) to nil.
func CleanAnnotation(raw string) *string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "<na>", "none", "null":
		return nil
	}
	return &s
}
