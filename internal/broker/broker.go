// Package broker simulates order execution against daily market snapshots.
// It owns the order book and decides which open orders fill, at what price,
// and whether the portfolio can afford them.
package broker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Broker implements domain.ExecutionHandler against daily snapshot data.
// Prices are coarse: only the open (derived) and close are known, so fills
// are bounded by that range and nothing finer.
type Broker struct {
	book       *Book
	commission domain.CommissionFunc
	logger     *slog.Logger
}

// New creates a Broker with an empty book and the given commission schedule.
func New(commission domain.CommissionFunc, logger *slog.Logger) *Broker {
	return &Broker{
		book:       NewBook(),
		commission: commission,
		logger:     logger.With(slog.String("component", "broker")),
	}
}

// PlaceOrder validates and enqueues an order as OPEN, preserving submission
// order within its action bucket. Invalid orders never enter the book. The
// returned copy carries the assigned ID.
func (b *Broker) PlaceOrder(o domain.Order) (domain.Order, error) {
	if o.Quantity <= 0 {
		return domain.Order{}, fmt.Errorf("broker: quantity %d: %w", o.Quantity, domain.ErrInvalidOrder)
	}
	if strings.TrimSpace(o.Ticker) == "" {
		return domain.Order{}, fmt.Errorf("broker: empty ticker: %w", domain.ErrInvalidOrder)
	}
	if o.Action != domain.ActionBuy && o.Action != domain.ActionSell {
		return domain.Order{}, fmt.Errorf("broker: action %q: %w", o.Action, domain.ErrInvalidOrder)
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Status = domain.StatusOpen
	o.ExecutedAt = nil
	o.FillPrice = nil
	o.CommissionPaid = 0

	b.book.Insert(o)
	b.logger.Debug("order placed",
		slog.String("order_id", o.ID),
		slog.String("ticker", o.Ticker),
		slog.String("action", string(o.Action)),
		slog.String("kind", string(o.Kind)),
		slog.Int64("quantity", o.Quantity),
	)
	return o, nil
}

// CancelOrder moves an OPEN order to CANCELLED.
func (b *Broker) CancelOrder(id string) error {
	if err := b.book.transition(id, domain.StatusCancelled); err != nil {
		return err
	}
	b.logger.Info("order cancelled", slog.String("order_id", id))
	return nil
}

// Book exposes read access to the order book for reporting.
func (b *Broker) Book() *Book {
	return b.book
}

// IsBusinessDay reports whether day falls Monday through Friday. Holidays are
// not modelled; a holiday simply produces no snapshot upstream.
func IsBusinessDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ExecuteOrders evaluates every open order against the day's snapshot and
// returns the fills in evaluation order. A nil snapshot or a weekend leaves
// the book untouched and returns nothing.
//
// Evaluation policy: the BUY bucket is drained before the SELL bucket, FIFO
// within each. Funds are tracked as a running balance across the call: each
// BUY fill debits the balance and each SELL fill credits it, so two orders
// that individually fit but jointly exceed the opening cash cannot both fill.
func (b *Broker) ExecuteOrders(snap domain.Snapshot, day time.Time, cash float64) []domain.Order {
	if snap == nil || !IsBusinessDay(day) {
		return nil
	}

	var executed []domain.Order
	for _, action := range []domain.Action{domain.ActionBuy, domain.ActionSell} {
		for _, id := range b.book.OpenIDs(action) {
			o, ok := b.book.mutate(id)
			if !ok {
				continue
			}
			// Orders placed today wait until the next trading day.
			if !o.InitiatedAt.Before(day) {
				continue
			}

			q, ok := snap.Quote(o.Ticker)
			if !ok {
				b.logger.Warn("order skipped, will retry",
					slog.String("order_id", o.ID),
					slog.String("ticker", o.Ticker),
					slog.String("error", domain.ErrMissingMarketData.Error()),
				)
				continue
			}

			fillPrice, fills := b.evaluate(o, q, cash)
			if !fills {
				continue
			}

			fee := b.commission(o.Quantity, fillPrice)
			if err := b.book.transition(id, domain.StatusComplete); err != nil {
				b.logger.Error("fill transition failed",
					slog.String("order_id", o.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			executedAt := day
			o.ExecutedAt = &executedAt
			o.FillPrice = &fillPrice
			o.CommissionPaid = fee

			switch o.Action {
			case domain.ActionBuy:
				cash -= o.Notional(fillPrice) + fee
			case domain.ActionSell:
				cash += o.Notional(fillPrice) - fee
			}

			executed = append(executed, *o)
			b.logger.Info("order filled",
				slog.String("order_id", o.ID),
				slog.String("ticker", o.Ticker),
				slog.String("action", string(o.Action)),
				slog.Int64("quantity", o.Quantity),
				slog.Float64("fill_price", fillPrice),
				slog.Float64("commission", fee),
			)
		}
	}
	return executed
}

// evaluate applies the fill rule for the order's kind and reports the fill
// price. Orders that do not fill stay OPEN and are retried on the next call.
func (b *Broker) evaluate(o *domain.Order, q domain.Quote, cash float64) (float64, bool) {
	open, close := q.Open(), q.Price

	switch o.Kind {
	case domain.KindMarket:
		return open, b.verifyFunds(o.Quantity, open, cash)

	case domain.KindLimit:
		if !b.verifyFunds(o.Quantity, o.LimitPrice, cash) {
			return 0, false
		}
		// The limit must be reachable within the day's known price range.
		if open <= o.LimitPrice && o.LimitPrice <= close {
			return o.LimitPrice, true
		}
		return 0, false

	case domain.KindStopLimit:
		// Trigger-then-limit semantics are not settled for open/close-only
		// data; leave the order working rather than guess.
		b.logger.Warn("order skipped",
			slog.String("order_id", o.ID),
			slog.String("kind", string(o.Kind)),
			slog.String("error", domain.ErrUnsupportedOrderKind.Error()),
		)
		return 0, false

	default:
		b.logger.Error("unknown order kind in book",
			slog.String("order_id", o.ID),
			slog.String("kind", string(o.Kind)),
		)
		return 0, false
	}
}

// verifyFunds checks that notional plus commission fits in the available cash.
func (b *Broker) verifyFunds(quantity int64, price float64, cash float64) bool {
	notional := float64(quantity) * price
	return notional+b.commission(quantity, price) <= cash
}
