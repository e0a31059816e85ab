package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/dashboard"
	"github.com/sells-group/adpulse/internal/loader"
	"github.com/sells-group/adpulse/internal/model"
	"github.com/sells-group/adpulse/internal/store"
)

// Holder is the single live snapshot the API serves from. A failed refresh
// keeps the last good snapshot so the dashboard degrades to stale data rather
// than going dark; the load error is surfaced alongside it.
type Holder struct {
	mu   sync.RWMutex
	snap *model.Snapshot
	err  error
}

// Set publishes a fresh snapshot and clears any previous load error.
func (h *Holder) Set(snap *model.Snapshot) {
	h.mu.Lock()
	h.snap = snap
	h.err = nil
	h.mu.Unlock()
}

// Fail records a load error without discarding the previous snapshot.
func (h *Holder) Fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Get returns the current snapshot (nil before the first successful load) and
// the most recent load error, if any.
func (h *Holder) Get() (*model.Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap, h.err
}

// Refresher rebuilds the snapshot from the source files and records every
// attempt as a refresh run.
type Refresher struct {
	loader  *loader.Loader
	dataCfg config.DataConfig
	store   store.Store
	holder  *Holder

	mu sync.Mutex // one refresh at a time
}

// NewRefresher creates a Refresher publishing into holder. The store may be
// nil, in which case runs are not recorded.
func NewRefresher(l *loader.Loader, dataCfg config.DataConfig, st store.Store, holder *Holder) *Refresher {
	return &Refresher{loader: l, dataCfg: dataCfg, store: st, holder: holder}
}

// Holder returns the snapshot holder the refresher publishes into.
func (r *Refresher) Holder() *Holder { return r.holder }

// Refresh performs one full load-merge-derive cycle. On failure the returned
// run carries the error and the holder keeps its last good snapshot.
func (r *Refresher) Refresh(ctx context.Context) (*model.RefreshRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.createRun(ctx)

	res, err := r.loader.Load(ctx, r.dataCfg)
	if err != nil {
		r.holder.Fail(err)
		run.Status = model.RefreshStatusFailed
		run.Error = err.Error()
		r.completeRun(ctx, run)
		return run, err
	}

	snap := dashboard.BuildSnapshot(res, time.Now().UTC())
	r.holder.Set(snap)

	run.Status = model.RefreshStatusComplete
	run.MergedRows = len(snap.Merged)
	for _, q := range res.Quality {
		run.Sources = append(run.Sources, model.SourceStat{Name: q.Source, Path: q.Path, Rows: q.Rows})
		run.Warnings = append(run.Warnings, q.Warnings...)
	}
	r.completeRun(ctx, run)

	zap.L().Info("snapshot refreshed",
		zap.String("run_id", run.ID),
		zap.Int("merged_rows", run.MergedRows),
		zap.Int("warnings", len(run.Warnings)),
	)
	return run, nil
}

func (r *Refresher) createRun(ctx context.Context) *model.RefreshRun {
	if r.store == nil {
		return &model.RefreshRun{Status: model.RefreshStatusRunning, StartedAt: time.Now().UTC()}
	}
	run, err := r.store.CreateRun(ctx)
	if err != nil {
		zap.L().Warn("record refresh run", zap.Error(err))
		return &model.RefreshRun{Status: model.RefreshStatusRunning, StartedAt: time.Now().UTC()}
	}
	return run
}

func (r *Refresher) completeRun(ctx context.Context, run *model.RefreshRun) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if r.store == nil || run.ID == "" {
		return
	}
	if err := r.store.CompleteRun(ctx, run); err != nil {
		zap.L().Warn("record refresh run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
