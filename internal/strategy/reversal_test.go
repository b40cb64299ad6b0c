package strategy

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketreplay/internal/broker"
	"github.com/alanyoungcy/marketreplay/internal/domain"
	"github.com/alanyoungcy/marketreplay/internal/ledger"
	"github.com/alanyoungcy/marketreplay/internal/portfolio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// day returns a 2021 March date; the 1st is a Monday.
func day(d int) time.Time {
	return time.Date(2021, time.March, d, 0, 0, 0, 0, time.UTC)
}

// candidate passes the default screen: large cap, down on the year, PE above
// the floor. Volume controls whether entry triggers.
func candidate(ticker string, price, volume, perfWeek float64) domain.Quote {
	return domain.Quote{
		Ticker:    ticker,
		Price:     price,
		FromOpen:  0,
		Volume:    volume,
		MarketCap: 250_000,
		PerfYear:  -0.5,
		PerfWeek:  perfWeek,
		PE:        6,
	}
}

func newReversal(t *testing.T, cash float64) (*Reversal, *broker.Broker, *ledger.Ledger, *portfolio.Tracker) {
	t.Helper()
	b := broker.New(broker.FreeCommission, testLogger())
	l := ledger.New(day(1), cash, testLogger())
	tr := portfolio.NewTracker(testLogger())
	return NewReversal(DefaultReversalConfig(), b, l, tr, testLogger()), b, l, tr
}

func TestScreenAddsToWatchlist(t *testing.T) {
	r, b, _, _ := newReversal(t, 100_000)

	// Low volume: screened in but not bought.
	snap := domain.Snapshot{"GME": candidate("GME", 100, 500_000, 0)}
	_, err := r.Next(context.Background(), snap, day(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"GME"}, r.Watchlist())
	assert.Equal(t, 0, b.Book().Count(domain.ActionBuy, domain.StatusOpen))
}

func TestScreenRejectsNonCandidates(t *testing.T) {
	r, _, _, _ := newReversal(t, 100_000)

	snap := domain.Snapshot{
		"SMALL": {Ticker: "SMALL", Price: 10, MarketCap: 1_000, PerfYear: -0.5, PE: 6},
		"UP":    {Ticker: "UP", Price: 10, MarketCap: 250_000, PerfYear: 0.3, PE: 6},
		"CHEAP": {Ticker: "CHEAP", Price: 10, MarketCap: 250_000, PerfYear: -0.5, PE: 3},
	}
	_, err := r.Next(context.Background(), snap, day(1))
	require.NoError(t, err)
	assert.Empty(t, r.Watchlist())
}

func TestVolumeSpikeTriggersEntry(t *testing.T) {
	r, b, _, _ := newReversal(t, 100_000)

	snap := domain.Snapshot{"GME": candidate("GME", 100, 2_000_000, 0)}
	_, err := r.Next(context.Background(), snap, day(1))
	require.NoError(t, err)

	open := b.Book().Orders(domain.ActionBuy, domain.StatusOpen)
	require.Len(t, open, 1)
	assert.Equal(t, "GME", open[0].Ticker)
	assert.Equal(t, int64(100), open[0].Quantity)
	assert.Equal(t, domain.KindMarket, open[0].Kind)

	// A pending ticker is not ordered twice.
	_, err = r.Next(context.Background(), snap, day(1))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Book().Count(domain.ActionBuy, domain.StatusOpen))
}

func TestWatchlistExpiry(t *testing.T) {
	r, _, _, _ := newReversal(t, 100_000)

	snap := domain.Snapshot{"GME": candidate("GME", 100, 500_000, 0)}
	_, err := r.Next(context.Background(), snap, day(1))
	require.NoError(t, err)
	require.Equal(t, []string{"GME"}, r.Watchlist())

	// Six days later the candidate has expired; an empty snapshot keeps the
	// screen from re-adding it.
	_, err = r.Next(context.Background(), domain.Snapshot{}, day(7))
	require.NoError(t, err)
	assert.Empty(t, r.Watchlist())
}

func TestNonTradingDay(t *testing.T) {
	r, _, _, _ := newReversal(t, 100_000)

	entry, err := r.Next(context.Background(), nil, day(6))
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, entry.Cash)
	assert.Equal(t, 100_000.0, entry.TotalValue)
}

// Full cycle: screen and entry on Monday, fill on Tuesday, exit signal on
// Wednesday, sell fill on Thursday.
func TestEntryExitCycle(t *testing.T) {
	r, b, l, tr := newReversal(t, 100_000)
	ctx := context.Background()

	// Monday: candidate screens in and the volume spike places a buy.
	_, err := r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 100, 2_000_000, 0)}, day(1))
	require.NoError(t, err)
	require.Equal(t, 1, b.Book().Count(domain.ActionBuy, domain.StatusOpen))

	// Tuesday: the buy fills at the open (100). Volume is quiet so no
	// re-entry follows the fill.
	entry, err := r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 100, 500_000, 0)}, day(2))
	require.NoError(t, err)
	assert.InDelta(t, 90_000, entry.Cash, 1e-9)
	assert.InDelta(t, 10_000, entry.Equity, 1e-9)
	assert.InDelta(t, 100_000, entry.TotalValue, 1e-9)

	h, ok := tr.Get("GME")
	require.True(t, ok)
	assert.Equal(t, int64(100), h.Quantity)
	assert.InDelta(t, 100.0, h.Cost, 1e-9)

	// Wednesday: the week's move breaches the exit threshold; the full
	// position is offered.
	_, err = r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 110, 500_000, 0.12)}, day(3))
	require.NoError(t, err)
	sells := b.Book().Orders(domain.ActionSell, domain.StatusOpen)
	require.Len(t, sells, 1)
	assert.Equal(t, int64(100), sells[0].Quantity)

	// Thursday: the sell fills at the open (115) and the holding closes.
	entry, err = r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 115, 500_000, 0.02)}, day(4))
	require.NoError(t, err)
	_, ok = tr.Get("GME")
	assert.False(t, ok)
	assert.InDelta(t, 90_000+11_500, entry.Cash, 1e-9)
	assert.InDelta(t, entry.Cash+entry.Equity, entry.TotalValue, 1e-9)

	assert.Equal(t, 2, len(b.Book().Completed()))
	assert.GreaterOrEqual(t, l.Len(), 3)
}

// A sharp move down also exits; the rule is symmetric.
func TestExitOnDownMove(t *testing.T) {
	r, b, _, _ := newReversal(t, 100_000)
	ctx := context.Background()

	_, err := r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 100, 2_000_000, 0)}, day(1))
	require.NoError(t, err)
	_, err = r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 100, 500_000, 0)}, day(2))
	require.NoError(t, err)

	_, err = r.Next(ctx, domain.Snapshot{"GME": candidate("GME", 80, 500_000, -0.15)}, day(3))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Book().Count(domain.ActionSell, domain.StatusOpen))
}
