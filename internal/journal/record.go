package journal

import (
	"fmt"
	"time"
)

// Record is one executed trade event in the ledger.
// Date is always a date-only midnight UTC timestamp; PnL is nil while the
// position is still open, and open rows are excluded from every statistic.
type Record struct {
	Date     time.Time
	Name     string
	Action   string
	Quantity float64
	Price    float64
	Value    float64
	PnL      *float64
	Ratio    *string
	Notes    *string
}

// Key is the natural key identifying a unique trade event. Two records with
// equal keys are the same trade regardless of which export window they came from.
type Key struct {
	Day      int64
	Name     string
	Action   string
	Quantity float64
	Price    float64
}

func (r Record) Key() Key {
	return Key{
		Day:      r.Date.Unix() / 86400,
		Name:     r.Name,
		Action:   r.Action,
		Quantity: r.Quantity,
		Price:    r.Price,
	}
}

// Completed returns the subset of trades with a realized PnL, preserving order.
func Completed(trades []Record) []Record {
	out := make([]Record, 0, len(trades))
	for _, t := range trades {
		if t.PnL != nil {
			out = append(out, t)
		}
	}
	return out
}

// DateOnly truncates t to midnight UTC, discarding time of day and offset.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RawRow is one string-typed row as decoded from an uploaded export file,
// before any normalization. Line is the 1-based row number in the source file.
type RawRow struct {
	Line     int
	Date     string
	Name     string
	Action   string
	Quantity string
	Price    string
	Value    string
	PnL      string
	Ratio    string
	Notes    string
}

// SchemaError reports a structurally unrecoverable upload: a required column
// is absent. It aborts the whole merge; the prior ledger stays authoritative.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("journal: required column %q missing from upload", e.Column)
}
