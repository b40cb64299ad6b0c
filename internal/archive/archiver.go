// Package archive uploads finished-run artifacts (equity curve and fills as
// CSV) to object storage under runs/<run-id>/.
package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// Uploader is the slice of the blob client the archiver needs. Put is for
// small bounded artifacts; Upload streams through the multipart uploader for
// artifacts that grow with the replay length.
type Uploader interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
	Upload(ctx context.Context, key string, data io.Reader, partSize int64) error
}

// Archiver renders run artifacts to CSV and uploads them.
type Archiver struct {
	blob   Uploader
	logger *slog.Logger
}

// New creates an Archiver writing through the given blob client.
func New(blob Uploader, logger *slog.Logger) *Archiver {
	return &Archiver{
		blob:   blob,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveRun uploads the equity curve and completed orders of a run. The two
// uploads run concurrently; the first failure cancels the other.
func (a *Archiver) ArchiveRun(ctx context.Context, runID string, curve []domain.LedgerEntry, orders []domain.Order) error {
	curveCSV, err := renderCurve(curve)
	if err != nil {
		return fmt.Errorf("archive: render equity curve: %w", err)
	}
	ordersCSV, err := renderOrders(orders)
	if err != nil {
		return fmt.Errorf("archive: render orders: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := "runs/" + runID + "/equity_curve.csv"
		if err := a.blob.Put(ctx, key, bytes.NewReader(curveCSV), "text/csv"); err != nil {
			return fmt.Errorf("archive: upload %s: %w", key, err)
		}
		return nil
	})
	g.Go(func() error {
		key := "runs/" + runID + "/orders.csv"
		if err := a.blob.Upload(ctx, key, bytes.NewReader(ordersCSV), 0); err != nil {
			return fmt.Errorf("archive: upload %s: %w", key, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("run archived",
		slog.String("run_id", runID),
		slog.Int("curve_rows", len(curve)),
		slog.Int("order_rows", len(orders)),
	)
	return nil
}

func renderCurve(entries []domain.LedgerEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"date", "cash", "equity", "total_value", "commission_paid"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			e.Date.Format("2006-01-02"),
			formatFloat(e.Cash),
			formatFloat(e.Equity),
			formatFloat(e.TotalValue),
			formatFloat(e.CommissionPaid),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderOrders(orders []domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"order_id", "ticker", "action", "kind", "quantity",
		"initiated_at", "executed_at", "fill_price", "commission_paid",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, o := range orders {
		executedAt, fillPrice := "", ""
		if o.ExecutedAt != nil {
			executedAt = o.ExecutedAt.Format("2006-01-02")
		}
		if o.FillPrice != nil {
			fillPrice = formatFloat(*o.FillPrice)
		}
		row := []string{
			o.ID, o.Ticker, string(o.Action), string(o.Kind),
			strconv.FormatInt(o.Quantity, 10),
			o.InitiatedAt.Format("2006-01-02"),
			executedAt, fillPrice,
			formatFloat(o.CommissionPaid),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
