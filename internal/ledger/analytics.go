package ledger

import (
	"math"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// tradingDaysPerYear annualizes daily statistics.
const tradingDaysPerYear = 252

// Summary aggregates the derived performance statistics of an equity curve.
type Summary struct {
	TotalReturn      float64
	SharpeRatio      float64
	MaxDrawdown      float64
	DrawdownDuration int
}

// DailyReturns computes the day-over-day fractional change of total value.
// The result has len(entries)-1 elements; an empty or single-entry curve
// yields nil.
func DailyReturns(entries []domain.LedgerEntry) []float64 {
	if len(entries) < 2 {
		return nil
	}
	out := make([]float64, 0, len(entries)-1)
	for i := 1; i < len(entries); i++ {
		prev := entries[i-1].TotalValue
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (entries[i].TotalValue-prev)/prev)
	}
	return out
}

// SharpeRatio returns the annualized Sharpe ratio of the curve's daily
// returns, assuming a zero risk-free rate: mean/stdev * sqrt(252). Curves
// with fewer than three entries, or with zero return variance, yield 0.
func SharpeRatio(entries []domain.LedgerEntry) float64 {
	returns := DailyReturns(entries)
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}

	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// MaxDrawdown returns the largest peak-to-trough decline of total value as a
// fraction of the peak.
func MaxDrawdown(entries []domain.LedgerEntry) float64 {
	var peak, worst float64
	for _, e := range entries {
		if e.TotalValue > peak {
			peak = e.TotalValue
		}
		if peak == 0 {
			continue
		}
		if dd := (peak - e.TotalValue) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// DrawdownDuration returns the length, in recorded days, of the longest run
// during which total value stayed below its prior peak.
func DrawdownDuration(entries []domain.LedgerEntry) int {
	var peak float64
	var run, longest int
	for _, e := range entries {
		if e.TotalValue >= peak {
			peak = e.TotalValue
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Summarize computes all derived statistics for the curve.
func Summarize(entries []domain.LedgerEntry) Summary {
	s := Summary{
		SharpeRatio:      SharpeRatio(entries),
		MaxDrawdown:      MaxDrawdown(entries),
		DrawdownDuration: DrawdownDuration(entries),
	}
	if len(entries) > 0 && entries[0].TotalValue != 0 {
		first, last := entries[0].TotalValue, entries[len(entries)-1].TotalValue
		s.TotalReturn = (last - first) / first
	}
	return s
}
