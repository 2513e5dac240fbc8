package journal

import (
	"sort"
	"time"
)

// EquityPoint is one day on the equity curve. Drawdown is the distance from
// the running peak of cumulative PnL and is never positive.
type EquityPoint struct {
	Date          string  `json:"date"`
	DailyPnL      float64 `json:"daily_pnl"`
	CumulativePnL float64 `json:"cumulative_pnl"`
	Drawdown      float64 `json:"drawdown"`
}

// DeriveEquity collapses trades to one point per calendar day and derives the
// cumulative equity and drawdown series in date order. Pure function of its
// input; calling it again on the same set yields the same series.
func DeriveEquity(trades []Record) []EquityPoint {
	daily := map[int64]float64{}
	for _, t := range trades {
		if t.PnL == nil {
			continue
		}
		daily[t.Date.Unix()] += *t.PnL
	}
	if len(daily) == 0 {
		return nil
	}

	days := make([]int64, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	points := make([]EquityPoint, 0, len(days))
	cum := 0.0
	peak := 0.0
	for i, d := range days {
		pnl := daily[d]
		cum += pnl
		if i == 0 || cum > peak {
			peak = cum
		}
		points = append(points, EquityPoint{
			Date:          dayString(d),
			DailyPnL:      pnl,
			CumulativePnL: cum,
			Drawdown:      cum - peak,
		})
	}
	return points
}

func dayString(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}
