package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/worker"
)

// PushRunner drives one job through its rows
type PushRunner struct {
	store JobStore
	rows  *RowProcessor
	now   func() time.Time
}

// NewPushRunner creates a new runner
func NewPushRunner(store JobStore, rows *RowProcessor) *PushRunner {
	return &PushRunner{
		store: store,
		rows:  rows,
		now:   time.Now,
	}
}

// Run processes every row of a queued job in order and finishes it. A job
// that vanished from the store is dropped without error.
func (r *PushRunner) Run(ctx context.Context, entry worker.Job) {
	log := slog.With("job_id", entry.ID, "environment", entry.Auth.Environment)

	job, err := r.store.Get(ctx, entry.ID)
	if err != nil {
		r.logLookupFailure(log, err)
		return
	}
	if job.Status.IsTerminal() {
		return
	}

	if err := entry.Auth.Env.Validate(); err != nil {
		log.Warn("Push job cannot start", "error", err)
		if err := r.store.Finish(ctx, entry.ID, model.JobError, err.Error(), r.now()); err != nil {
			r.logLookupFailure(log, err)
		}
		return
	}

	if err := r.store.MarkRunning(ctx, entry.ID, r.now()); err != nil {
		r.logLookupFailure(log, err)
		return
	}

	log.Info("Push job started", "user", job.User, "rows", job.Total)
	start := time.Now()

	for i, row := range job.Rows {
		result := r.rows.Process(ctx, entry.Auth.Env, i, row)
		if ctx.Err() != nil {
			log.Warn("Push job interrupted", "row", i)
			return
		}

		if err := r.store.AppendResult(ctx, entry.ID, result); err != nil {
			r.logLookupFailure(log, err)
			return
		}
		job.Results = append(job.Results, result)
	}

	if err := r.store.Finish(ctx, entry.ID, model.JobCompleted, "", r.now()); err != nil {
		r.logLookupFailure(log, err)
		return
	}

	summary := job.Summary()
	log.Info("Push job completed",
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (r *PushRunner) logLookupFailure(log *slog.Logger, err error) {
	if errors.Is(err, model.ErrJobNotFound) {
		log.Info("Push job no longer in store, dropping")
		return
	}
	log.Error("Push job store update failed, dropping", "error", err)
}
