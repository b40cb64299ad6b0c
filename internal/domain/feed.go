package domain

import (
	"context"
	"time"
)

// MarketDataFeed returns the daily snapshot for a calendar date. A nil
// Snapshot with a nil error means the backend has no data for that date
// (weekend or holiday); an error means the fetch itself failed. Either way
// the caller treats the day as non-trading.
type MarketDataFeed interface {
	Fetch(ctx context.Context, day time.Time) (Snapshot, error)
}
