// Package store persists the refresh-run history: one record per snapshot
// rebuild, successful or failed.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/model"
)

// RunFilter specifies criteria for listing refresh runs.
type RunFilter struct {
	Status model.RefreshStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for refresh history.
type Store interface {
	CreateRun(ctx context.Context) (*model.RefreshRun, error)
	CompleteRun(ctx context.Context, run *model.RefreshRun) error
	GetRun(ctx context.Context, runID string) (*model.RefreshRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RefreshRun, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the configured store backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
