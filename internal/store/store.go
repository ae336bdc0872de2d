// Package store journals batch runs and per-document outcomes so that
// operators can audit which source files succeeded, which were skipped with
// which error kind, and which rows were dropped for recoverable reasons.
package store

import (
	"context"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// Store is the run journal persistence interface.
type Store interface {
	CreateRun(ctx context.Context) (*model.Run, error)
	RecordDocument(ctx context.Context, runID string, res model.DocumentResult) error
	FinishRun(ctx context.Context, report *model.BatchReport) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	ListDocuments(ctx context.Context, runID string) ([]model.DocumentResult, error)
	Migrate(ctx context.Context) error
	Close() error
}
