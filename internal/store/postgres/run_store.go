package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// SaveRun inserts the run summary row.
func (s *RunStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	const query = `
		INSERT INTO runs (
			id, strategy, start_date, end_date, starting_cash,
			final_value, total_return, sharpe_ratio, max_drawdown,
			drawdown_duration, commission_paid, order_count, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.Strategy, run.Start, run.End, run.StartingCash,
		run.FinalValue, run.TotalReturn, run.SharpeRatio, run.MaxDrawdown,
		run.DrawdownDuration, run.CommissionPaid, run.OrderCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveEquityCurve batch-inserts the run's ledger entries.
func (s *RunStore) SaveEquityCurve(ctx context.Context, runID string, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	const query = `
		INSERT INTO run_equity_curve (run_id, date, cash, equity, total_value, commission_paid)
		VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, runID, e.Date, e.Cash, e.Equity, e.TotalValue, e.CommissionPaid)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: save equity curve for %s: %w", runID, err)
		}
	}
	return nil
}

// SaveOrders batch-inserts the run's completed orders.
func (s *RunStore) SaveOrders(ctx context.Context, runID string, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	const query = `
		INSERT INTO run_orders (
			run_id, order_id, ticker, action, kind, quantity, status,
			initiated_at, executed_at, fill_price, commission_paid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(query,
			runID, o.ID, o.Ticker, string(o.Action), string(o.Kind),
			o.Quantity, string(o.Status),
			o.InitiatedAt, o.ExecutedAt, o.FillPrice, o.CommissionPaid,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range orders {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: save orders for %s: %w", runID, err)
		}
	}
	return nil
}

const runSelectCols = `id, strategy, start_date, end_date, starting_cash,
	final_value, total_return, sharpe_ratio, max_drawdown,
	drawdown_duration, commission_paid, order_count, created_at`

func scanRun(scanner interface{ Scan(dest ...any) error }) (domain.RunRecord, error) {
	var r domain.RunRecord
	var created time.Time
	err := scanner.Scan(
		&r.ID, &r.Strategy, &r.Start, &r.End, &r.StartingCash,
		&r.FinalValue, &r.TotalReturn, &r.SharpeRatio, &r.MaxDrawdown,
		&r.DrawdownDuration, &r.CommissionPaid, &r.OrderCount, &created,
	)
	if err != nil {
		return domain.RunRecord{}, err
	}
	r.CreatedAt = created
	return r, nil
}

// GetRun fetches one run summary by ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+runSelectCols+" FROM runs WHERE id = $1", id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RunRecord{}, fmt.Errorf("postgres: run %s: %w", id, domain.ErrNotFound)
		}
		return domain.RunRecord{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+runSelectCols+" FROM runs ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	return out, nil
}
