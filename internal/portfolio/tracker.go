// Package portfolio tracks per-ticker positions: share counts, average cost
// basis, and daily mark-to-market valuation.
package portfolio

import (
	"log/slog"
	"sort"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Tracker owns the holdings table. It is updated from fills and from each
// day's snapshot; callers only ever see copies.
type Tracker struct {
	holdings map[string]*domain.Holding
	logger   *slog.Logger
}

// NewTracker returns an empty Tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		holdings: make(map[string]*domain.Holding),
		logger:   logger.With(slog.String("component", "portfolio")),
	}
}

// ApplyFill updates the holdings table from a completed order. A BUY creates
// the holding or folds into it at quantity-weighted average cost; a SELL
// decrements quantity, leaves the cost basis untouched, and removes the
// holding entirely when the quantity reaches zero.
func (t *Tracker) ApplyFill(order domain.Order) {
	if !order.Filled() {
		t.logger.Warn("ignoring unfilled order", slog.String("order_id", order.ID))
		return
	}
	price := *order.FillPrice

	switch order.Action {
	case domain.ActionBuy:
		h, ok := t.holdings[order.Ticker]
		if !ok {
			t.holdings[order.Ticker] = &domain.Holding{
				Ticker:      order.Ticker,
				Quantity:    order.Quantity,
				Cost:        price,
				LastPrice:   price,
				MarketValue: order.Notional(price),
			}
			t.logger.Info("holding opened",
				slog.String("ticker", order.Ticker),
				slog.Int64("quantity", order.Quantity),
				slog.Float64("cost", price),
			)
			return
		}
		total := h.Quantity + order.Quantity
		h.Cost = (h.Cost*float64(h.Quantity) + price*float64(order.Quantity)) / float64(total)
		h.Quantity = total
		h.LastPrice = price
		revalue(h)

	case domain.ActionSell:
		h, ok := t.holdings[order.Ticker]
		if !ok {
			t.logger.Warn("sell fill for unknown holding", slog.String("ticker", order.Ticker))
			return
		}
		h.Quantity -= order.Quantity
		h.LastPrice = price
		if h.Quantity <= 0 {
			delete(t.holdings, order.Ticker)
			t.logger.Info("holding closed", slog.String("ticker", order.Ticker))
			return
		}
		revalue(h)
	}
}

// MarkToMarket refreshes every holding's last price and valuation from the
// day's snapshot. Tickers absent from the snapshot keep their previous mark.
func (t *Tracker) MarkToMarket(snap domain.Snapshot) {
	if snap == nil {
		return
	}
	for ticker, h := range t.holdings {
		q, ok := snap.Quote(ticker)
		if !ok {
			continue
		}
		h.LastPrice = q.Price
		revalue(h)
	}
}

// Get returns a copy of the holding for ticker, if any.
func (t *Tracker) Get(ticker string) (domain.Holding, bool) {
	h, ok := t.holdings[ticker]
	if !ok {
		return domain.Holding{}, false
	}
	return *h, true
}

// Holdings returns copies of all holdings sorted by ticker.
func (t *Tracker) Holdings() []domain.Holding {
	out := make([]domain.Holding, 0, len(t.holdings))
	for _, h := range t.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Equity returns the summed market value of all holdings.
func (t *Tracker) Equity() float64 {
	var total float64
	for _, h := range t.holdings {
		total += h.MarketValue
	}
	return total
}

// revalue recomputes the derived valuation fields from quantity, cost, and
// last price.
func revalue(h *domain.Holding) {
	h.MarketValue = float64(h.Quantity) * h.LastPrice
	h.GainUSD = h.MarketValue - float64(h.Quantity)*h.Cost
	if h.Cost != 0 {
		h.GainPct = (h.LastPrice - h.Cost) / h.Cost * 100
	}
}
