package domain

import (
	"context"
	"time"
)

// RunRecord summarizes one finished replay for persistence.
type RunRecord struct {
	ID               string
	Strategy         string
	Start            time.Time
	End              time.Time
	StartingCash     float64
	FinalValue       float64
	TotalReturn      float64
	SharpeRatio      float64
	MaxDrawdown      float64
	DrawdownDuration int
	CommissionPaid   float64
	OrderCount       int
	CreatedAt        time.Time
}

// RunStore persists replay results: the run summary, its equity curve, and
// its completed orders.
type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	SaveEquityCurve(ctx context.Context, runID string, entries []LedgerEntry) error
	SaveOrders(ctx context.Context, runID string, orders []Order) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
