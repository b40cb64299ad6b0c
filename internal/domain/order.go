package domain

import "time"

// Action indicates whether an order buys or sells stock.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Status tracks the order lifecycle. The only legal transitions are
// OPEN -> COMPLETE and OPEN -> CANCELLED; both end states are terminal.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusComplete  Status = "COMPLETE"
	StatusCancelled Status = "CANCELLED"
)

// TimeInForce defines how long an order keeps working before it is cancelled.
type TimeInForce string

const (
	// TIFDay cancels the order if not executed by the end of the trading day.
	// Every order is a Day order unless specified otherwise.
	TIFDay TimeInForce = "DAY"
	// TIFGTC (good-till-cancelled) keeps the order working until it executes
	// or the customer cancels it. Limit, stop, and stop-limit orders.
	TIFGTC TimeInForce = "GTC"
	// TIFIOC (immediate-or-cancel) cancels any part of the order not filled
	// as soon as the market allows it. Market or limit orders.
	TIFIOC TimeInForce = "IOC"
	// TIFFOK (fill-or-kill) cancels the entire order unless all of it can be
	// filled as soon as the market allows it.
	TIFFOK TimeInForce = "FOK"
)

// OrderKind discriminates the order variants. Fill logic switches exhaustively
// on this tag rather than dispatching through an interface.
type OrderKind string

const (
	KindMarket    OrderKind = "market"
	KindLimit     OrderKind = "limit"
	KindStopLimit OrderKind = "stop_limit"
)

// Order is a simulated brokerage order. The shared record is always populated;
// LimitPrice, StopPrice, and TimeInForce are meaningful only for the kinds
// that carry them.
//
// Invariants: FillPrice and ExecutedAt are set if and only if the status is
// COMPLETE, and CommissionPaid > 0 implies COMPLETE.
type Order struct {
	ID          string
	InitiatedAt time.Time
	ExecutedAt  *time.Time
	Action      Action
	Ticker      string
	Quantity    int64
	Status      Status
	FillPrice   *float64
	// CommissionPaid stays 0 until the order fills.
	CommissionPaid float64

	Kind        OrderKind
	LimitPrice  float64     // limit and stop-limit orders
	StopPrice   float64     // stop-limit orders only
	TimeInForce TimeInForce // zero value means DAY
}

// NewMarketOrder builds an unsubmitted market order initiated on day.
func NewMarketOrder(day time.Time, action Action, ticker string, quantity int64) Order {
	return Order{
		InitiatedAt: day,
		Action:      action,
		Ticker:      ticker,
		Quantity:    quantity,
		Status:      StatusOpen,
		Kind:        KindMarket,
		TimeInForce: TIFDay,
	}
}

// NewLimitOrder builds an unsubmitted limit order initiated on day.
func NewLimitOrder(day time.Time, action Action, ticker string, quantity int64, limitPrice float64, tif TimeInForce) Order {
	return Order{
		InitiatedAt: day,
		Action:      action,
		Ticker:      ticker,
		Quantity:    quantity,
		Status:      StatusOpen,
		Kind:        KindLimit,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
	}
}

// NewStopLimitOrder builds an unsubmitted stop-limit order initiated on day.
func NewStopLimitOrder(day time.Time, action Action, ticker string, quantity int64, stopPrice, limitPrice float64, tif TimeInForce) Order {
	return Order{
		InitiatedAt: day,
		Action:      action,
		Ticker:      ticker,
		Quantity:    quantity,
		Status:      StatusOpen,
		Kind:        KindStopLimit,
		StopPrice:   stopPrice,
		LimitPrice:  limitPrice,
		TimeInForce: tif,
	}
}

// Filled reports whether the order has completed with a fill price.
func (o Order) Filled() bool {
	return o.Status == StatusComplete && o.FillPrice != nil
}

// Notional returns quantity times the given price.
func (o Order) Notional(price float64) float64 {
	return float64(o.Quantity) * price
}

// CommissionFunc computes the transaction cost of trading quantity shares at
// the given price. Injected by the driver so fee schedules stay pluggable.
type CommissionFunc func(quantity int64, price float64) float64
