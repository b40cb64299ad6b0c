// Package app provides the top-level application lifecycle for the market
// replay engine. It wires together all dependencies (feed, stores, cache,
// blob storage, notifications), assembles the strategy, and drives one replay
// from start to finish.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketreplay/internal/broker"
	"github.com/alanyoungcy/marketreplay/internal/config"
	"github.com/alanyoungcy/marketreplay/internal/domain"
	"github.com/alanyoungcy/marketreplay/internal/ledger"
	"github.com/alanyoungcy/marketreplay/internal/portfolio"
	"github.com/alanyoungcy/marketreplay/internal/replay"
	"github.com/alanyoungcy/marketreplay/internal/strategy"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, assembles the configured strategy, executes the
// replay over the configured date window, and then persists, archives, and
// reports the result. Cleanup functions run when Close is called.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting replay",
		slog.String("strategy", a.cfg.Replay.Strategy),
		slog.String("data_source", a.cfg.Replay.DataSource),
		slog.String("window", a.cfg.Replay.StartDate+".."+a.cfg.Replay.EndDate),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	start, err := a.cfg.Replay.Start()
	if err != nil {
		return fmt.Errorf("app: parse start_date: %w", err)
	}
	end, err := a.cfg.Replay.End()
	if err != nil {
		return fmt.Errorf("app: parse end_date: %w", err)
	}

	commission := broker.IBCommission
	if a.cfg.Replay.Commission == "free" {
		commission = broker.FreeCommission
	}

	base := slog.Default()
	brk := broker.New(commission, base)
	led := ledger.New(start, a.cfg.Replay.StartingCash, base)
	tracker := portfolio.NewTracker(base)

	registry := strategy.NewRegistry()
	registry.Register("reversal", strategy.NewReversal(
		reversalConfig(a.cfg.Reversal), brk, led, tracker, base,
	))

	strat, err := registry.Get(a.cfg.Replay.Strategy)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	runner := replay.NewRunner(deps.Feed, strat, brk.Book(), start, end, a.cfg.Replay.StartingCash, base)
	result, err := runner.Run(ctx)
	if err != nil {
		if nerr := deps.Notifier.RunFailed(ctx, a.cfg.Replay.Strategy, "", err); nerr != nil {
			a.logger.Warn("failure notification not delivered", slog.String("error", nerr.Error()))
		}
		return fmt.Errorf("app: replay: %w", err)
	}

	record := domain.RunRecord{
		ID:               result.RunID,
		Strategy:         result.Strategy,
		Start:            result.Start,
		End:              result.End,
		StartingCash:     result.StartingCash,
		FinalValue:       result.Final.TotalValue,
		TotalReturn:      result.Summary.TotalReturn,
		SharpeRatio:      result.Summary.SharpeRatio,
		MaxDrawdown:      result.Summary.MaxDrawdown,
		DrawdownDuration: result.Summary.DrawdownDuration,
		CommissionPaid:   result.Final.CommissionPaid,
		OrderCount:       len(result.Orders),
	}

	if deps.Runs != nil {
		if err := a.persist(ctx, deps.Runs, record, result); err != nil {
			return err
		}
	}
	if deps.Archiver != nil {
		if err := deps.Archiver.ArchiveRun(ctx, result.RunID, result.Curve, result.Orders); err != nil {
			a.logger.Warn("run archival failed",
				slog.String("run_id", result.RunID),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := deps.Notifier.RunFinished(ctx, record); err != nil {
		a.logger.Warn("finish notification not delivered", slog.String("error", err.Error()))
	}

	a.logger.InfoContext(ctx, "replay complete",
		slog.String("run_id", result.RunID),
		slog.Float64("final_value", record.FinalValue),
		slog.Float64("total_return", record.TotalReturn),
		slog.Float64("sharpe_ratio", record.SharpeRatio),
		slog.Float64("max_drawdown", record.MaxDrawdown),
		slog.Int("orders", record.OrderCount),
	)
	return nil
}

// persist saves the run summary, equity curve, and completed orders.
func (a *App) persist(ctx context.Context, store domain.RunStore, record domain.RunRecord, result *replay.Result) error {
	if err := store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("app: persist run: %w", err)
	}
	if err := store.SaveEquityCurve(ctx, record.ID, result.Curve); err != nil {
		return fmt.Errorf("app: persist equity curve: %w", err)
	}
	if err := store.SaveOrders(ctx, record.ID, result.Orders); err != nil {
		return fmt.Errorf("app: persist orders: %w", err)
	}
	a.logger.Info("run persisted", slog.String("run_id", record.ID))
	return nil
}

// reversalConfig maps the config section onto the strategy's parameters.
func reversalConfig(cfg config.ReversalConfig) strategy.ReversalConfig {
	return strategy.ReversalConfig{
		MinMarketCap:  cfg.MinMarketCap,
		MaxPerfYear:   cfg.MaxPerfYear,
		MinPE:         cfg.MinPE,
		MinVolume:     cfg.MinVolume,
		ExitPerfWeek:  cfg.ExitPerfWeek,
		WatchlistDays: cfg.WatchlistDays,
		OrderQuantity: cfg.OrderQuantity,
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
