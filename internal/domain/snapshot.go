package domain

import "time"

// Quote is one ticker's row in a daily market snapshot. Price is the day's
// close; FromOpen is the fractional change from the open to the close, which
// is all the intraday information the snapshot carries.
type Quote struct {
	Ticker    string
	Price     float64 // close
	FromOpen  float64 // fractional change open -> close
	Change    float64 // fractional change vs previous close
	Volume    float64
	MarketCap float64 // thousands USD
	PerfYear  float64
	PerfWeek  float64
	PE        float64
	IPODate   *time.Time
	Earnings  *time.Time
}

// Open derives the day's open price from the close and the open-to-close
// change. Undefined when FromOpen == -1 (the quote would have opened at
// infinity); callers never see that from real screen data.
func (q Quote) Open() float64 {
	return q.Price / (1 + q.FromOpen)
}

// Snapshot is one day's market data, keyed by ticker. A nil Snapshot means
// the day had no data (weekend, holiday, or a failed fetch).
type Snapshot map[string]Quote

// Quote looks up a ticker's row. The second return is false when the ticker
// is absent from the day's snapshot.
func (s Snapshot) Quote(ticker string) (Quote, bool) {
	q, ok := s[ticker]
	return q, ok
}

// Tickers returns the tickers present in the snapshot, in no particular order.
func (s Snapshot) Tickers() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}
