package domain

import "time"

// LedgerEntry records the portfolio's state for one simulated calendar date.
// TotalValue must equal Cash + Equity on every entry; CommissionPaid is
// cumulative over the whole replay.
type LedgerEntry struct {
	Date           time.Time
	Cash           float64
	Equity         float64
	TotalValue     float64
	CommissionPaid float64
}

// Holding is one ticker's position: share count, average cost basis, and the
// latest mark-to-market valuation.
type Holding struct {
	Ticker      string
	Quantity    int64
	Cost        float64 // weighted-average cost per share
	LastPrice   float64
	MarketValue float64
	GainUSD     float64
	GainPct     float64
}
