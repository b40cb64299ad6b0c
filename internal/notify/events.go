package notify

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Event types emitted by the replay runner.
const (
	EventRunFinished = "run_finished"
	EventRunFailed   = "run_failed"
)

// RunFinished reports a completed replay with its headline statistics.
func (n *Notifier) RunFinished(ctx context.Context, run domain.RunRecord) error {
	title := fmt.Sprintf("Replay finished: %s", run.Strategy)
	message := fmt.Sprintf(
		"Run %s\n%s to %s\nFinal value: %.2f (%.2f%% return)\nSharpe: %.2f  Max drawdown: %.2f%%\nOrders: %d  Commission: %.2f",
		run.ID,
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"),
		run.FinalValue, run.TotalReturn*100,
		run.SharpeRatio, run.MaxDrawdown*100,
		run.OrderCount, run.CommissionPaid,
	)
	return n.Notify(ctx, EventRunFinished, title, message)
}

// RunFailed reports a replay aborted by an error.
func (n *Notifier) RunFailed(ctx context.Context, strategy, runID string, err error) error {
	title := fmt.Sprintf("Replay failed: %s", strategy)
	message := fmt.Sprintf("Run %s\nError: %v", runID, err)
	return n.Notify(ctx, EventRunFailed, title, message)
}
