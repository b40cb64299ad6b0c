package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
	"github.com/alanyoungcy/marketreplay/internal/ledger"
	"github.com/alanyoungcy/marketreplay/internal/portfolio"
)

// ReversalConfig holds the screen thresholds for the reversal strategy.
type ReversalConfig struct {
	// Screen: candidates must satisfy all three.
	MinMarketCap float64 // thousands USD
	MaxPerfYear  float64
	MinPE        float64

	// Entry: a watched ticker is bought when daily volume exceeds this.
	MinVolume float64

	// Exit: a holding is sold when |PerfWeek| reaches this.
	ExitPerfWeek float64

	// WatchlistDays drops a candidate that has not triggered within N days.
	WatchlistDays int

	// OrderQuantity is the fixed share count per entry order.
	OrderQuantity int64
}

// DefaultReversalConfig returns the screen parameters the strategy was
// originally tuned with.
func DefaultReversalConfig() ReversalConfig {
	return ReversalConfig{
		MinMarketCap:  200_000,
		MaxPerfYear:   0,
		MinPE:         5,
		MinVolume:     1_000_000,
		ExitPerfWeek:  0.10,
		WatchlistDays: 6,
		OrderQuantity: 100,
	}
}

// Reversal buys beaten-down, profitable large caps and exits on a sharp
// weekly move in either direction. Candidates sit on a watchlist until a
// volume spike triggers the entry or the watchlist entry expires.
type Reversal struct {
	cfg     ReversalConfig
	broker  domain.ExecutionHandler
	ledger  *ledger.Ledger
	tracker *portfolio.Tracker

	watchlist map[string]time.Time // ticker -> date added
	pending   map[string]bool      // tickers with an unfilled order working
	logger    *slog.Logger
}

// NewReversal wires a Reversal over its broker, ledger, and holdings tracker.
func NewReversal(cfg ReversalConfig, b domain.ExecutionHandler, l *ledger.Ledger, t *portfolio.Tracker, logger *slog.Logger) *Reversal {
	return &Reversal{
		cfg:       cfg,
		broker:    b,
		ledger:    l,
		tracker:   t,
		watchlist: make(map[string]time.Time),
		pending:   make(map[string]bool),
		logger:    logger.With(slog.String("component", "reversal")),
	}
}

// Name implements Strategy.
func (r *Reversal) Name() string { return "reversal" }

// Next runs one simulated day: mark holdings to market, execute working
// orders against the snapshot, book the fills, then apply the exit and entry
// rules to place tomorrow's orders.
func (r *Reversal) Next(ctx context.Context, snap domain.Snapshot, day time.Time) (domain.LedgerEntry, error) {
	r.tracker.MarkToMarket(snap)
	r.pruneWatchlist(day)

	executed := r.broker.ExecuteOrders(snap, day, r.ledger.DailyStats().Cash)
	for _, o := range executed {
		delete(r.watchlist, o.Ticker)
		delete(r.pending, o.Ticker)
		r.ledger.ApplyFill(day, o)
		r.tracker.ApplyFill(o)
	}

	if snap != nil {
		r.exitRule(day, snap)
		r.entryRule(day, snap)
	}

	return r.ledger.DailyStats(), nil
}

// exitRule sells the full position of any holding whose weekly performance
// has moved ExitPerfWeek in either direction.
func (r *Reversal) exitRule(day time.Time, snap domain.Snapshot) {
	for _, h := range r.tracker.Holdings() {
		if r.pending[h.Ticker] {
			continue
		}
		q, ok := snap.Quote(h.Ticker)
		if !ok {
			continue
		}
		if q.PerfWeek >= r.cfg.ExitPerfWeek || q.PerfWeek <= -r.cfg.ExitPerfWeek {
			r.place(domain.NewMarketOrder(day, domain.ActionSell, h.Ticker, h.Quantity))
		}
	}
}

// entryRule refreshes the watchlist from today's screen, then buys any
// watched ticker whose volume cleared the trigger.
func (r *Reversal) entryRule(day time.Time, snap domain.Snapshot) {
	r.runScreen(day, snap)

	for ticker := range r.watchlist {
		if r.pending[ticker] {
			continue
		}
		q, ok := snap.Quote(ticker)
		if !ok {
			continue
		}
		if q.Volume > r.cfg.MinVolume {
			r.place(domain.NewMarketOrder(day, domain.ActionBuy, ticker, r.cfg.OrderQuantity))
		}
	}
}

// runScreen adds today's screen survivors to the watchlist. Tickers already
// watched keep their original added date.
func (r *Reversal) runScreen(day time.Time, snap domain.Snapshot) {
	for ticker, q := range snap {
		if q.MarketCap > r.cfg.MinMarketCap && q.PerfYear < r.cfg.MaxPerfYear && q.PE > r.cfg.MinPE {
			if _, ok := r.watchlist[ticker]; !ok {
				r.watchlist[ticker] = day
				r.logger.Debug("watchlist add", slog.String("ticker", ticker))
			}
		}
	}
}

// pruneWatchlist drops candidates that have been watched too long.
func (r *Reversal) pruneWatchlist(day time.Time) {
	for ticker, added := range r.watchlist {
		if !added.AddDate(0, 0, r.cfg.WatchlistDays).After(day) {
			delete(r.watchlist, ticker)
			r.logger.Debug("watchlist expired", slog.String("ticker", ticker))
		}
	}
}

func (r *Reversal) place(o domain.Order) {
	placed, err := r.broker.PlaceOrder(o)
	if err != nil {
		r.logger.Warn("order rejected",
			slog.String("ticker", o.Ticker),
			slog.String("action", string(o.Action)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.pending[placed.Ticker] = true
	r.logger.Info("order placed",
		slog.String("order_id", placed.ID),
		slog.String("ticker", placed.Ticker),
		slog.String("action", string(placed.Action)),
		slog.Int64("quantity", placed.Quantity),
	)
}

// Watchlist returns the currently watched tickers (for reporting and tests).
func (r *Reversal) Watchlist() []string {
	out := make([]string, 0, len(r.watchlist))
	for t := range r.watchlist {
		out = append(out, t)
	}
	return out
}
