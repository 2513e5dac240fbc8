package journal

import (
	"fmt"
	"strings"
	"time"
)

// Window is a relative date range anchored to the newest date in the ledger,
// not the wall clock, so filters stay meaningful on historical data.
type Window string

const (
	WindowDay Window = "day"
	Window7D  Window = "7d"
	Window30D Window = "30d"
	WindowAll Window = "all"
)

func ParseWindow(raw string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "all_time":
		return WindowAll, nil
	case "day", "1d", "last_day":
		return WindowDay, nil
	case "7d", "week", "last_7_days":
		return Window7D, nil
	case "30d", "month", "last_30_days":
		return Window30D, nil
	}
	return "", fmt.Errorf("unknown window %q", raw)
}

// Select returns the subset of trades inside the window. The reference day is
// the maximum date present in trades; "7d" means the inclusive range of 7
// calendar days ending at the reference. The input is never mutated.
func Select(trades []Record, w Window) []Record {
	if w == WindowAll || len(trades) == 0 {
		out := make([]Record, len(trades))
		copy(out, trades)
		return out
	}

	ref, ok := MaxDate(trades)
	if !ok {
		return nil
	}
	cutoff, _ := Cutoff(trades, w)

	out := make([]Record, 0, len(trades))
	for _, t := range trades {
		if w == WindowDay {
			if t.Date.Equal(ref) {
				out = append(out, t)
			}
			continue
		}
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Cutoff returns the first day inside the window. Trades strictly before it
// belong to the pre-window history that seeds the equity baseline.
func Cutoff(trades []Record, w Window) (time.Time, bool) {
	ref, ok := MaxDate(trades)
	if !ok {
		return time.Time{}, false
	}
	switch w {
	case WindowDay:
		return ref, true
	case Window7D:
		return ref.AddDate(0, 0, -6), true
	case Window30D:
		return ref.AddDate(0, 0, -29), true
	default:
		return time.Time{}, false
	}
}

// MaxDate returns the newest trade date, or false for an empty set.
func MaxDate(trades []Record) (time.Time, bool) {
	if len(trades) == 0 {
		return time.Time{}, false
	}
	max := trades[0].Date
	for _, t := range trades[1:] {
		if t.Date.After(max) {
			max = t.Date
		}
	}
	return max, true
}
