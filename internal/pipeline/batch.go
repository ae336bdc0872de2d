package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// Batch processes every document regardless of earlier failures and returns
// the full report. Documents share only the read-only schema, so the batch
// fans out across workers without shared mutable state.
func (r *Runner) Batch(ctx context.Context, paths []string, concurrency int) *model.BatchReport {
	if concurrency < 1 {
		concurrency = 1
	}

	report := &model.BatchReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	if r.Journal != nil {
		if run, err := r.Journal.CreateRun(ctx); err != nil {
			zap.L().Warn("journal unavailable, continuing without it", zap.Error(err))
		} else {
			report.RunID = run.ID
		}
	}

	zap.L().Info("processing batch",
		zap.String("run_id", report.RunID),
		zap.Int("documents", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]model.DocumentResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path // per-iteration copies; required for correctness before Go 1.22
		g.Go(func() error {
			results[i] = r.Document(gctx, path)
			if r.Journal != nil {
				if err := r.Journal.RecordDocument(gctx, report.RunID, results[i]); err != nil {
					zap.L().Warn("journal write failed", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; results capture all outcomes

	report.Documents = results
	report.FinishedAt = time.Now().UTC()

	if r.Journal != nil {
		if err := r.Journal.FinishRun(ctx, report); err != nil {
			zap.L().Warn("journal finish failed", zap.Error(err))
		}
	}

	zap.L().Info("batch complete",
		zap.String("run_id", report.RunID),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
		zap.Int("rows", report.Rows()),
	)
	return report
}
