// Package strategy holds the pluggable trading strategies driven by the
// replay runner.
package strategy

import (
	"context"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Strategy is the contract the runner drives. Next is invoked exactly once
// per calendar day, trading or not; snap is nil on non-trading days. The
// returned entry is the day's closing ledger state.
type Strategy interface {
	Name() string
	Next(ctx context.Context, snap domain.Snapshot, day time.Time) (domain.LedgerEntry, error)
}
