// Package ledger keeps the equity curve: an append-only, date-ordered series
// of cash/equity/commission entries that fills are applied to transactionally.
package ledger

import (
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Ledger owns the equity curve. All mutation goes through ApplyFill; callers
// only ever see copies of entries.
type Ledger struct {
	entries []domain.LedgerEntry
	logger  *slog.Logger
}

// New seeds the curve with a single entry holding the starting cash at
// startDay: no equity, no commission paid.
func New(startDay time.Time, cash float64, logger *slog.Logger) *Ledger {
	return &Ledger{
		entries: []domain.LedgerEntry{{
			Date:           startDay,
			Cash:           cash,
			Equity:         0,
			TotalValue:     cash,
			CommissionPaid: 0,
		}},
		logger: logger.With(slog.String("component", "ledger")),
	}
}

// ApplyFill commits a completed order's cash and equity deltas for day.
// A BUY moves notional from cash into equity, a SELL moves it back; both
// pay commission out of cash. Multiple fills on the same date accumulate
// onto that date's single entry; a new date appends a new entry.
func (l *Ledger) ApplyFill(day time.Time, order domain.Order) {
	if !order.Filled() {
		l.logger.Warn("ignoring unfilled order", slog.String("order_id", order.ID))
		return
	}

	last := l.entries[len(l.entries)-1]
	notional := order.Notional(*order.FillPrice)

	entry := domain.LedgerEntry{
		Date:           day,
		Cash:           last.Cash - order.CommissionPaid,
		Equity:         last.Equity,
		CommissionPaid: last.CommissionPaid + order.CommissionPaid,
	}
	switch order.Action {
	case domain.ActionBuy:
		entry.Cash -= notional
		entry.Equity += notional
	case domain.ActionSell:
		entry.Cash += notional
		entry.Equity -= notional
	}
	entry.TotalValue = entry.Cash + entry.Equity

	if last.Date.Equal(day) {
		l.entries[len(l.entries)-1] = entry
	} else {
		l.entries = append(l.entries, entry)
	}

	l.logger.Debug("fill applied",
		slog.Time("date", day),
		slog.String("order_id", order.ID),
		slog.Float64("cash", entry.Cash),
		slog.Float64("equity", entry.Equity),
	)
}

// DailyStats returns a copy of the most recent entry.
func (l *Ledger) DailyStats() domain.LedgerEntry {
	return l.entries[len(l.entries)-1]
}

// Entries returns a copy of the full equity curve in date order.
func (l *Ledger) Entries() []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded dates.
func (l *Ledger) Len() int {
	return len(l.entries)
}
