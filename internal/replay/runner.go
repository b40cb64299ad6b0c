// Package replay drives the day-by-day backtest loop: fetch the day's
// snapshot, hand it to the strategy, and collect the equity curve.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketreplay/internal/domain"
	"github.com/alanyoungcy/marketreplay/internal/ledger"
	"github.com/alanyoungcy/marketreplay/internal/strategy"
)

// OrderLister exposes the completed orders of a run for reporting.
type OrderLister interface {
	Completed() []domain.Order
}

// Result is everything a finished replay produced.
type Result struct {
	RunID        string
	Strategy     string
	Start, End   time.Time
	StartingCash float64
	Final        domain.LedgerEntry
	Curve        []domain.LedgerEntry
	Orders       []domain.Order
	Summary      ledger.Summary
}

// Runner iterates calendar dates from start to end inclusive, invoking the
// strategy exactly once per day. The replay is strictly sequential; the only
// suspension point is the snapshot fetch.
type Runner struct {
	feed   domain.MarketDataFeed
	strat  strategy.Strategy
	orders OrderLister // may be nil

	start, end   time.Time
	startingCash float64
	logger       *slog.Logger
}

// NewRunner builds a Runner. orders may be nil when the caller does not need
// the completed-order report.
func NewRunner(feed domain.MarketDataFeed, strat strategy.Strategy, orders OrderLister, start, end time.Time, startingCash float64, logger *slog.Logger) *Runner {
	return &Runner{
		feed:         feed,
		strat:        strat,
		orders:       orders,
		start:        start,
		end:          end,
		startingCash: startingCash,
		logger:       logger.With(slog.String("component", "runner")),
	}
}

// Run executes the replay. A failed or empty fetch makes that day
// non-trading and the loop continues; a strategy error aborts the run.
// Cancellation is honored between days.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:        uuid.NewString(),
		Strategy:     r.strat.Name(),
		Start:        r.start,
		End:          r.end,
		StartingCash: r.startingCash,
	}

	r.logger.Info("replay starting",
		slog.String("run_id", result.RunID),
		slog.String("strategy", result.Strategy),
		slog.Time("start", r.start),
		slog.Time("end", r.end),
		slog.Float64("cash", r.startingCash),
	)

	for day := r.start; !day.After(r.end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}

		snap, err := r.feed.Fetch(ctx, day)
		if err != nil {
			// A failed fetch only loses this one day.
			r.logger.Warn("snapshot fetch failed, treating day as non-trading",
				slog.Time("date", day),
				slog.String("error", err.Error()),
			)
			snap = nil
		}

		entry, err := r.strat.Next(ctx, snap, day)
		if err != nil {
			return nil, fmt.Errorf("replay: strategy %s on %s: %w",
				r.strat.Name(), day.Format("2006-01-02"), err)
		}
		r.collect(result, entry)
	}

	if len(result.Curve) > 0 {
		result.Final = result.Curve[len(result.Curve)-1]
	}
	result.Summary = ledger.Summarize(result.Curve)
	if r.orders != nil {
		result.Orders = r.orders.Completed()
	}

	r.logger.Info("replay finished",
		slog.String("run_id", result.RunID),
		slog.Float64("total_value", result.Final.TotalValue),
		slog.Float64("total_return", result.Summary.TotalReturn),
		slog.Int("orders", len(result.Orders)),
	)
	return result, nil
}

// collect appends the day's entry to the curve. The ledger accumulates
// same-date fills onto one entry, so a repeated date replaces the previous
// copy rather than duplicating it.
func (r *Runner) collect(result *Result, entry domain.LedgerEntry) {
	n := len(result.Curve)
	if n > 0 && result.Curve[n-1].Date.Equal(entry.Date) {
		result.Curve[n-1] = entry
		return
	}
	result.Curve = append(result.Curve, entry)
}
