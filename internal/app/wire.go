package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketreplay/internal/archive"
	s3blob "github.com/alanyoungcy/marketreplay/internal/blob/s3"
	"github.com/alanyoungcy/marketreplay/internal/cache/redis"
	"github.com/alanyoungcy/marketreplay/internal/config"
	"github.com/alanyoungcy/marketreplay/internal/domain"
	"github.com/alanyoungcy/marketreplay/internal/feed"
	"github.com/alanyoungcy/marketreplay/internal/notify"
	"github.com/alanyoungcy/marketreplay/internal/store/postgres"
)

// Dependencies bundles the infrastructure the replay needs. It is constructed
// by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Feed     domain.MarketDataFeed
	Runs     domain.RunStore   // nil when the database is disabled
	Archiver *archive.Archiver // nil unless s3.archive_runs is set
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL run persistence (optional) ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Runs = postgres.NewRunStore(pgClient.Pool())
	}

	// --- S3 blob storage (snapshot source and/or run archive) ---
	var s3Client *s3blob.Client
	if cfg.Replay.DataSource == "s3" || cfg.S3.ArchiveRuns {
		var err error
		s3Client, err = s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
	}

	// --- Snapshot feed ---
	var base domain.MarketDataFeed
	switch cfg.Replay.DataSource {
	case "s3":
		base = feed.NewS3(s3Client, logger)
	default:
		base = feed.NewLocal(cfg.Replay.LocalDir, logger)
	}
	deps.Feed = base

	// --- Redis snapshot cache (optional decorator) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cache := redis.NewSnapshotCache(redisClient, cfg.Redis.TTL.Duration)
		deps.Feed = feed.NewCached(base, cache, logger)
	}

	// --- Run archival ---
	if cfg.S3.ArchiveRuns {
		deps.Archiver = archive.New(s3Client, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
