package domain

import "time"

// ExecutionHandler is the capability surface strategies use to trade. The
// backtest broker is the only implementation today; a live adapter could be
// substituted without touching strategy code.
type ExecutionHandler interface {
	// PlaceOrder validates the order and enqueues it as OPEN. Orders that
	// fail validation never enter the book.
	PlaceOrder(order Order) (Order, error)

	// CancelOrder moves an OPEN order to CANCELLED. Returns ErrNotFound for
	// unknown IDs and ErrOrderNotOpen for terminal orders.
	CancelOrder(id string) error

	// ExecuteOrders evaluates every open order against the day's snapshot
	// and returns the orders that filled, in evaluation order. cash is the
	// money available at the start of the call.
	ExecuteOrders(snap Snapshot, day time.Time, cash float64) []Order
}
