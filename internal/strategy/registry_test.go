package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

type noopStrategy struct{ name string }

func (s *noopStrategy) Name() string { return s.name }

func (s *noopStrategy) Next(context.Context, domain.Snapshot, time.Time) (domain.LedgerEntry, error) {
	return domain.LedgerEntry{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", &noopStrategy{name: "noop"})
	r.Register("other", &noopStrategy{name: "other"})

	got, err := r.Get("noop")
	require.NoError(t, err)
	assert.Equal(t, "noop", got.Name())

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ElementsMatch(t, []string{"noop", "other"}, r.List())
}
