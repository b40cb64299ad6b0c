package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidOrder         = errors.New("invalid order parameters")
	ErrMissingMarketData    = errors.New("ticker missing from snapshot")
	ErrUnsupportedOrderKind = errors.New("unsupported order kind")
	ErrOrderNotOpen         = errors.New("order is not open")
)
