package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

type fakeFeed struct {
	snaps   map[string]domain.Snapshot
	err     error
	fetches int
}

func (f *fakeFeed) Fetch(_ context.Context, day time.Time) (domain.Snapshot, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.snaps[DateKey(day)], nil
}

type fakeCache struct {
	store  map[string]domain.Snapshot
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]domain.Snapshot)}
}

func (c *fakeCache) Get(_ context.Context, day time.Time) (domain.Snapshot, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	snap, ok := c.store[DateKey(day)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snap, nil
}

func (c *fakeCache) Set(_ context.Context, day time.Time, snap domain.Snapshot) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.store[DateKey(day)] = snap
	return nil
}

func TestCachedFetchMissThenHit(t *testing.T) {
	day := time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)
	inner := &fakeFeed{snaps: map[string]domain.Snapshot{
		"2021-03-02": {"AAPL": {Ticker: "AAPL", Price: 50}},
	}}
	cache := newFakeCache()
	cached := NewCached(inner, cache, testLogger())

	snap, err := cached.Fetch(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, inner.fetches)

	// Second fetch is served from cache.
	snap, err = cached.Fetch(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, inner.fetches)
}

// No-data days are not cached; the backend is asked again next time.
func TestCachedFetchDoesNotCacheEmptyDays(t *testing.T) {
	day := time.Date(2021, time.March, 6, 0, 0, 0, 0, time.UTC)
	inner := &fakeFeed{snaps: map[string]domain.Snapshot{}}
	cache := newFakeCache()
	cached := NewCached(inner, cache, testLogger())

	snap, err := cached.Fetch(context.Background(), day)
	require.NoError(t, err)
	assert.Nil(t, snap)

	_, err = cached.Fetch(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.fetches)
}

// Cache failures degrade to the inner feed; they never fail the fetch.
func TestCachedFetchDegradesOnCacheErrors(t *testing.T) {
	day := time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)
	inner := &fakeFeed{snaps: map[string]domain.Snapshot{
		"2021-03-02": {"AAPL": {Ticker: "AAPL", Price: 50}},
	}}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	cached := NewCached(inner, cache, testLogger())

	snap, err := cached.Fetch(context.Background(), day)
	require.NoError(t, err)
	require.NotNil(t, snap)
}

func TestCachedFetchPropagatesFeedError(t *testing.T) {
	inner := &fakeFeed{err: errors.New("bucket unreachable")}
	cached := NewCached(inner, newFakeCache(), testLogger())

	_, err := cached.Fetch(context.Background(), time.Now())
	assert.Error(t, err)
}
