package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// BlobGetter is the slice of the blob client the S3 feed needs.
type BlobGetter interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// S3 implements domain.MarketDataFeed over date-keyed CSV objects in an
// S3-compatible bucket.
type S3 struct {
	blob   BlobGetter
	logger *slog.Logger
}

// NewS3 creates an S3 feed reading through the given blob client.
func NewS3(blob BlobGetter, logger *slog.Logger) *S3 {
	return &S3{
		blob:   blob,
		logger: logger.With(slog.String("component", "s3_feed")),
	}
}

// Fetch downloads and parses the day's snapshot object. A missing object
// means the day has no data and returns (nil, nil); transport failures are
// returned as errors for the caller to contain.
func (s *S3) Fetch(ctx context.Context, day time.Time) (domain.Snapshot, error) {
	key := ObjectKey(day)

	body, err := s.blob.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("no snapshot object", slog.String("key", key))
			return nil, nil
		}
		return nil, fmt.Errorf("feed: fetch %s: %w", key, err)
	}
	defer body.Close()

	snap, err := ParseSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", key, err)
	}
	return snap, nil
}
