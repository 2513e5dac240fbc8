package journal

import (
	"errors"
	"time"
)

// ErrNoTrades marks an empty trade set. It is not a failure: callers surface
// it as a first-class "no trades in range" result so presentation can tell
// "no trades happened" apart from "zero profit".
var ErrNoTrades = errors.New("journal: no completed trades in set")

// Stats aggregates performance metrics over a set of completed trades.
type Stats struct {
	Total      int     `json:"total"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"win_rate"`
	AvgWin     float64 `json:"avg_win"`
	AvgLoss    float64 `json:"avg_loss"`
	MaxWin     float64 `json:"max_win"`
	MaxLoss    float64 `json:"max_loss"`
	Expectancy float64 `json:"expectancy"`
	Profit     float64 `json:"profit"`
	ReturnPct  float64 `json:"return_pct"`
}

// Compute derives Stats over the completed trades in the set. Rows with
// pnl == 0 count toward neither wins nor losses. baseline is the reference
// capital for ReturnPct; a zero baseline yields 0, never Inf or NaN. An empty
// set returns ErrNoTrades rather than a zero-filled Stats.
func Compute(trades []Record, baseline float64) (Stats, error) {
	completed := Completed(trades)
	if len(completed) == 0 {
		return Stats{}, ErrNoTrades
	}

	var s Stats
	sumWin := 0.0
	sumLoss := 0.0
	s.MaxWin = *completed[0].PnL
	s.MaxLoss = *completed[0].PnL
	for _, t := range completed {
		pnl := *t.PnL
		s.Total++
		s.Profit += pnl
		if pnl > 0 {
			s.Wins++
			sumWin += pnl
		}
		if pnl < 0 {
			s.Losses++
			sumLoss += pnl
		}
		if pnl > s.MaxWin {
			s.MaxWin = pnl
		}
		if pnl < s.MaxLoss {
			s.MaxLoss = pnl
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.Total) * 100
	if s.Wins > 0 {
		s.AvgWin = sumWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = sumLoss / float64(s.Losses)
	}
	s.Expectancy = s.WinRate/100*s.AvgWin + (1-s.WinRate/100)*s.AvgLoss
	if baseline != 0 {
		s.ReturnPct = s.Profit / baseline * 100
	}
	return s, nil
}

// BaselineBefore returns the account equity immediately preceding a window:
// the starting capital plus every realized pnl strictly before the cutoff
// date. Filtered returns are expressed against this figure.
func BaselineBefore(all []Record, cutoff time.Time, startingCapital float64) float64 {
	base := startingCapital
	for _, t := range all {
		if t.PnL != nil && t.Date.Before(cutoff) {
			base += *t.PnL
		}
	}
	return base
}
