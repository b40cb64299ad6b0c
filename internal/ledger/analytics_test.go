package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

func curve(values ...float64) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(values))
	for i, v := range values {
		out[i] = domain.LedgerEntry{
			Date:       time.Date(2021, time.March, 1+i, 0, 0, 0, 0, time.UTC),
			TotalValue: v,
		}
	}
	return out
}

func TestDailyReturns(t *testing.T) {
	assert.Nil(t, DailyReturns(nil))
	assert.Nil(t, DailyReturns(curve(100)))

	returns := DailyReturns(curve(100, 110, 99))
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestSharpeRatio(t *testing.T) {
	// Too short or zero-variance curves yield 0.
	assert.Zero(t, SharpeRatio(curve(100, 110)))
	assert.Zero(t, SharpeRatio(curve(100, 100, 100)))

	// Returns +10%, -10%: mean ~ -0.005, sample stdev ~ 0.10607.
	got := SharpeRatio(curve(100, 110, 99))
	returns := []float64{0.10, -0.10}
	mean := (returns[0] + returns[1]) / 2
	variance := (math.Pow(returns[0]-mean, 2) + math.Pow(returns[1]-mean, 2)) / 1
	want := mean / math.Sqrt(variance) * math.Sqrt(252)
	assert.InDelta(t, want, got, 1e-6)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, MaxDrawdown(nil))
	assert.Zero(t, MaxDrawdown(curve(100, 110, 120)))

	// Peak 120, trough 90: 25%.
	assert.InDelta(t, 0.25, MaxDrawdown(curve(100, 120, 90, 110)), 1e-9)
}

func TestDrawdownDuration(t *testing.T) {
	assert.Zero(t, DrawdownDuration(curve(100, 110, 120)))

	// Below the 120 peak for three recorded days.
	assert.Equal(t, 3, DrawdownDuration(curve(100, 120, 90, 110, 119, 125)))
}

func TestSummarize(t *testing.T) {
	s := Summarize(curve(100, 120, 90, 110))
	assert.InDelta(t, 0.10, s.TotalReturn, 1e-9)
	assert.InDelta(t, 0.25, s.MaxDrawdown, 1e-9)
	assert.Equal(t, 2, s.DrawdownDuration)

	assert.Zero(t, Summarize(nil).TotalReturn)
}
