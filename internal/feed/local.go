package feed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Local implements domain.MarketDataFeed over a directory of date-keyed
// snapshot CSVs (<dir>/YYYY-MM-DD.csv).
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal creates a Local feed rooted at dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	return &Local{
		dir:    dir,
		logger: logger.With(slog.String("component", "local_feed")),
	}
}

// Fetch reads and parses the day's snapshot file. A missing file means the
// day has no data and returns (nil, nil).
func (l *Local) Fetch(ctx context.Context, day time.Time) (domain.Snapshot, error) {
	path := filepath.Join(l.dir, ObjectKey(day))

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("no snapshot file", slog.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer f.Close()

	snap, err := ParseSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", path, err)
	}
	return snap, nil
}
