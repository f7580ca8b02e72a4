// Package store persists run history and API response caches. Two backends
// are provided: SQLite for single-machine use and Postgres for shared
// deployments.
package store

import (
	"context"
	"time"

	"github.com/sells-group/catalog-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the compilation pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputPath string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, stats model.StatsSnapshot) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// API response cache
	GetCache(ctx context.Context, service, key string) (string, bool, error)
	PutCache(ctx context.Context, service, key, value string) error
	PruneCache(ctx context.Context, olderThan time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
