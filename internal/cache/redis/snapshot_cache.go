package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// SnapshotCache stores parsed daily snapshots as JSON blobs under
// "snapshot:{YYYY-MM-DD}". Replays over the same date range skip re-reading
// and re-parsing the backing CSVs.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache. A zero ttl means entries never
// expire.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

func snapshotKey(day time.Time) string {
	return "snapshot:" + day.Format("2006-01-02")
}

// jsonQuote mirrors domain.Quote with nullable numerics. Screen cells absent
// from the source become NaN in the domain, which encoding/json refuses to
// serialize, so NaN round-trips through null here.
type jsonQuote struct {
	Ticker    string     `json:"ticker"`
	Price     *float64   `json:"price"`
	FromOpen  *float64   `json:"from_open"`
	Change    *float64   `json:"change"`
	Volume    *float64   `json:"volume"`
	MarketCap *float64   `json:"market_cap"`
	PerfYear  *float64   `json:"perf_year"`
	PerfWeek  *float64   `json:"perf_week"`
	PE        *float64   `json:"pe"`
	IPODate   *time.Time `json:"ipo_date,omitempty"`
	Earnings  *time.Time `json:"earnings,omitempty"`
}

func toNullable(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func fromNullable(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func encodeQuote(q domain.Quote) jsonQuote {
	return jsonQuote{
		Ticker:    q.Ticker,
		Price:     toNullable(q.Price),
		FromOpen:  toNullable(q.FromOpen),
		Change:    toNullable(q.Change),
		Volume:    toNullable(q.Volume),
		MarketCap: toNullable(q.MarketCap),
		PerfYear:  toNullable(q.PerfYear),
		PerfWeek:  toNullable(q.PerfWeek),
		PE:        toNullable(q.PE),
		IPODate:   q.IPODate,
		Earnings:  q.Earnings,
	}
}

func decodeQuote(j jsonQuote) domain.Quote {
	return domain.Quote{
		Ticker:    j.Ticker,
		Price:     fromNullable(j.Price),
		FromOpen:  fromNullable(j.FromOpen),
		Change:    fromNullable(j.Change),
		Volume:    fromNullable(j.Volume),
		MarketCap: fromNullable(j.MarketCap),
		PerfYear:  fromNullable(j.PerfYear),
		PerfWeek:  fromNullable(j.PerfWeek),
		PE:        fromNullable(j.PE),
		IPODate:   j.IPODate,
		Earnings:  j.Earnings,
	}
}

// Get retrieves the cached snapshot for day, or domain.ErrNotFound on a miss.
func (sc *SnapshotCache) Get(ctx context.Context, day time.Time) (domain.Snapshot, error) {
	raw, err := sc.rdb.Get(ctx, snapshotKey(day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot %s: %w", day.Format("2006-01-02"), err)
	}

	var encoded map[string]jsonQuote
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("redis: decode snapshot %s: %w", day.Format("2006-01-02"), err)
	}

	snap := make(domain.Snapshot, len(encoded))
	for ticker, jq := range encoded {
		snap[ticker] = decodeQuote(jq)
	}
	return snap, nil
}

// Set stores the snapshot for day.
func (sc *SnapshotCache) Set(ctx context.Context, day time.Time, snap domain.Snapshot) error {
	encoded := make(map[string]jsonQuote, len(snap))
	for ticker, q := range snap {
		encoded[ticker] = encodeQuote(q)
	}

	raw, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("redis: encode snapshot %s: %w", day.Format("2006-01-02"), err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(day), raw, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}
