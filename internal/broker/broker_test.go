package broker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// day returns a 2021 March date; the 1st is a Monday.
func day(d int) time.Time {
	return time.Date(2021, time.March, d, 0, 0, 0, 0, time.UTC)
}

// quote builds a snapshot row where the close equals the open.
func quote(ticker string, close float64) domain.Quote {
	return domain.Quote{Ticker: ticker, Price: close, FromOpen: 0}
}

// quoteRange builds a snapshot row with distinct open and close.
func quoteRange(ticker string, open, close float64) domain.Quote {
	return domain.Quote{Ticker: ticker, Price: close, FromOpen: close/open - 1}
}

func TestPlaceOrderValidation(t *testing.T) {
	b := New(FreeCommission, testLogger())

	_, err := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 0))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", -5))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "  ", 10))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = b.PlaceOrder(domain.Order{Action: "HOLD", Ticker: "AAPL", Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	// Nothing entered the book.
	assert.Equal(t, 0, b.Book().Count(domain.ActionBuy, domain.StatusOpen))

	placed, err := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 10))
	require.NoError(t, err)
	assert.NotEmpty(t, placed.ID)
	assert.Equal(t, domain.StatusOpen, placed.Status)
	assert.Equal(t, 1, b.Book().Count(domain.ActionBuy, domain.StatusOpen))
}

func TestCancelOrder(t *testing.T) {
	b := New(FreeCommission, testLogger())

	placed, err := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 10))
	require.NoError(t, err)

	require.NoError(t, b.CancelOrder(placed.ID))

	got, ok := b.Book().Get(placed.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, got.Status)

	// Terminal states stay terminal.
	assert.ErrorIs(t, b.CancelOrder(placed.ID), domain.ErrOrderNotOpen)
	assert.ErrorIs(t, b.CancelOrder("no-such-order"), domain.ErrNotFound)
}

func TestExecuteOrdersNonTradingDay(t *testing.T) {
	b := New(FreeCommission, testLogger())
	placed, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 10))

	snap := domain.Snapshot{"AAPL": quote("AAPL", 50)}

	// Saturday March 6th.
	assert.Empty(t, b.ExecuteOrders(snap, day(6), 100_000))
	// Nil snapshot.
	assert.Empty(t, b.ExecuteOrders(nil, day(2), 100_000))

	got, _ := b.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

// Orders placed today must wait for the next trading day.
func TestExecuteOrdersSkipsSameDayOrders(t *testing.T) {
	b := New(FreeCommission, testLogger())
	placed, _ := b.PlaceOrder(domain.NewMarketOrder(day(2), domain.ActionBuy, "AAPL", 10))

	snap := domain.Snapshot{"AAPL": quote("AAPL", 50)}
	assert.Empty(t, b.ExecuteOrders(snap, day(2), 100_000))

	executed := b.ExecuteOrders(snap, day(3), 100_000)
	require.Len(t, executed, 1)
	assert.Equal(t, placed.ID, executed[0].ID)
}

// Scenario: a market BUY placed day 1 fills at day 2's derived open.
func TestMarketBuyFillsAtOpen(t *testing.T) {
	b := New(IBCommission, testLogger())
	cash := 100_000.0

	placed, err := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 100))
	require.NoError(t, err)

	snap := domain.Snapshot{"AAPL": quote("AAPL", 50.0)}
	executed := b.ExecuteOrders(snap, day(2), cash)
	require.Len(t, executed, 1)

	o := executed[0]
	assert.Equal(t, placed.ID, o.ID)
	assert.Equal(t, domain.StatusComplete, o.Status)
	require.NotNil(t, o.FillPrice)
	assert.InDelta(t, 50.0, *o.FillPrice, 1e-9)
	require.NotNil(t, o.ExecutedAt)
	assert.True(t, o.ExecutedAt.Equal(day(2)))
	assert.InDelta(t, IBCommission(100, 50.0), o.CommissionPaid, 1e-9)

	// A completed order is never re-evaluated.
	assert.Empty(t, b.ExecuteOrders(snap, day(3), cash))
}

// Scenario: a limit BUY fills at the limit when it lies within [open, close],
// and stays working on a day when the limit is below the open.
func TestLimitFillRules(t *testing.T) {
	b := New(FreeCommission, testLogger())

	placed, err := b.PlaceOrder(domain.NewLimitOrder(day(1), domain.ActionBuy, "AAPL", 10, 45.0, domain.TIFGTC))
	require.NoError(t, err)

	// Day 2: open=44, close=46, limit inside the range.
	snap := domain.Snapshot{"AAPL": quoteRange("AAPL", 44, 46)}
	executed := b.ExecuteOrders(snap, day(2), 100_000)
	require.Len(t, executed, 1)
	assert.InDelta(t, 45.0, *executed[0].FillPrice, 1e-9)

	// Same setup, but the market gapped above the limit: stays OPEN.
	b2 := New(FreeCommission, testLogger())
	placed, err = b2.PlaceOrder(domain.NewLimitOrder(day(1), domain.ActionBuy, "AAPL", 10, 45.0, domain.TIFGTC))
	require.NoError(t, err)

	snap = domain.Snapshot{"AAPL": quoteRange("AAPL", 47, 48)}
	assert.Empty(t, b2.ExecuteOrders(snap, day(2), 100_000))
	got, _ := b2.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

// Funds invariant: an order whose notional plus commission exceeds cash stays
// OPEN, with no error.
func TestInsufficientFundsLeavesOrderOpen(t *testing.T) {
	b := New(IBCommission, testLogger())

	placed, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 100))

	snap := domain.Snapshot{"AAPL": quote("AAPL", 50.0)}
	// 100*50 = 5000 > 4999.
	assert.Empty(t, b.ExecuteOrders(snap, day(2), 4_999))

	got, _ := b.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)

	// With enough cash the same order fills on a later day.
	executed := b.ExecuteOrders(snap, day(3), 100_000)
	require.Len(t, executed, 1)
	assert.Equal(t, placed.ID, executed[0].ID)
}

// Scenario: two BUYs that each fit individually but not jointly. The balance
// runs down within the call, so only the first (FIFO) fills.
func TestRunningBalanceAcrossFills(t *testing.T) {
	b := New(FreeCommission, testLogger())

	first, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "AAPL", 100))
	second, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "MSFT", 100))

	snap := domain.Snapshot{
		"AAPL": quote("AAPL", 50.0),
		"MSFT": quote("MSFT", 60.0),
	}

	// 8000 covers the 5000 AAPL or the 6000 MSFT alone, not both.
	executed := b.ExecuteOrders(snap, day(2), 8_000)
	require.Len(t, executed, 1)
	assert.Equal(t, first.ID, executed[0].ID)

	got, _ := b.Book().Get(second.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

// The funds check binds every fill, sells included.
func TestSellFundsCheckApplies(t *testing.T) {
	b := New(FreeCommission, testLogger())

	placed, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionSell, "AAPL", 100))
	snap := domain.Snapshot{"AAPL": quote("AAPL", 50.0)}

	assert.Empty(t, b.ExecuteOrders(snap, day(2), 0))
	got, _ := b.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)

	executed := b.ExecuteOrders(snap, day(3), 100_000)
	require.Len(t, executed, 1)
	assert.Equal(t, placed.ID, executed[0].ID)
}

func TestBuysEvaluatedBeforeSells(t *testing.T) {
	b := New(FreeCommission, testLogger())

	sell, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionSell, "AAPL", 10))
	buy, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "MSFT", 10))

	snap := domain.Snapshot{
		"AAPL": quote("AAPL", 50.0),
		"MSFT": quote("MSFT", 60.0),
	}
	executed := b.ExecuteOrders(snap, day(2), 100_000)
	require.Len(t, executed, 2)
	assert.Equal(t, buy.ID, executed[0].ID)
	assert.Equal(t, sell.ID, executed[1].ID)
}

// A ticker absent from the snapshot leaves the order working for retry.
func TestMissingTickerRetriesNextDay(t *testing.T) {
	b := New(FreeCommission, testLogger())

	placed, _ := b.PlaceOrder(domain.NewMarketOrder(day(1), domain.ActionBuy, "GME", 10))

	assert.Empty(t, b.ExecuteOrders(domain.Snapshot{"AAPL": quote("AAPL", 50)}, day(2), 100_000))
	got, _ := b.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)

	executed := b.ExecuteOrders(domain.Snapshot{"GME": quote("GME", 120)}, day(3), 100_000)
	require.Len(t, executed, 1)
	assert.Equal(t, placed.ID, executed[0].ID)
}

func TestStopLimitStaysOpen(t *testing.T) {
	b := New(FreeCommission, testLogger())

	placed, err := b.PlaceOrder(domain.NewStopLimitOrder(day(1), domain.ActionBuy, "AAPL", 10, 48, 47, domain.TIFGTC))
	require.NoError(t, err)

	snap := domain.Snapshot{"AAPL": quoteRange("AAPL", 44, 50)}
	assert.Empty(t, b.ExecuteOrders(snap, day(2), 100_000))

	got, _ := b.Book().Get(placed.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
}

func TestIsBusinessDay(t *testing.T) {
	assert.True(t, IsBusinessDay(day(1)))  // Monday
	assert.True(t, IsBusinessDay(day(5)))  // Friday
	assert.False(t, IsBusinessDay(day(6))) // Saturday
	assert.False(t, IsBusinessDay(day(7))) // Sunday
}
