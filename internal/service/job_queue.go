package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/worker"
	"github.com/google/uuid"
)

// JobStore persists jobs. Implemented by model.MemoryJobStore and
// database.JobRepository.
type JobStore interface {
	Insert(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
	List(ctx context.Context, filter model.JobFilter, page, limit int) ([]*model.Job, int64, error)
	ListUnfinished(ctx context.Context) ([]*model.Job, error)
	MarkRunning(ctx context.Context, jobID string, startedAt time.Time) error
	AppendResult(ctx context.Context, jobID string, result model.RowResult) error
	Finish(ctx context.Context, jobID string, status model.JobState, errMsg string, finishedAt time.Time) error
	Delete(ctx context.Context, jobID string) error
	PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Name() string
}

// EnvironmentResolver looks up target environments by name
type EnvironmentResolver interface {
	ResolveEnvironment(name string) (model.EnvConfig, error)
}

// EnqueueResult is returned to the caller that created a job
type EnqueueResult struct {
	JobID      string
	QueuePos   int
	QueueTotal int
}

// JobQueue creates jobs and feeds them to the single push lane
type JobQueue struct {
	store JobStore
	lane  *worker.Lane
	now   func() time.Time
}

// NewJobQueue creates a queue whose jobs are executed by runner
func NewJobQueue(store JobStore, runner *PushRunner) *JobQueue {
	return &JobQueue{
		store: store,
		lane:  worker.NewLane(runner.Run),
		now:   time.Now,
	}
}

// Start starts the runner goroutine
func (q *JobQueue) Start(ctx context.Context) {
	q.lane.Start(ctx)
}

// Stop stops the runner goroutine. The running job, if any, stays running.
func (q *JobQueue) Stop() {
	q.lane.Stop()
}

// Enqueue stores a new pending job and appends it to the queue tail
func (q *JobQueue) Enqueue(ctx context.Context, rows []model.Row, auth model.AuthContext) (*EnqueueResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to push", model.ErrValidation)
	}

	job := model.NewJob(uuid.New().String(), rows, auth, q.now())
	if err := q.store.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	pos, total := q.lane.Submit(worker.Job{ID: job.ID, Auth: auth})

	slog.Info("Push job enqueued",
		"job_id", job.ID,
		"user", auth.User,
		"environment", auth.Environment,
		"rows", job.Total,
		"queue_pos", pos,
	)

	return &EnqueueResult{JobID: job.ID, QueuePos: pos, QueueTotal: total}, nil
}

// Get returns a job snapshot with its live queue position
func (q *JobQueue) Get(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	job, err := q.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	pos, total := q.lane.Position(jobID)
	if job.Status.IsTerminal() && pos > 0 {
		// finished but not yet popped from the lane
		pos, total = 0, total-1
	}
	return &model.JobSnapshot{
		Job:        job,
		Summary:    job.Summary(),
		QueuePos:   pos,
		QueueTotal: total,
	}, nil
}

// List returns a page of jobs, newest first
func (q *JobQueue) List(ctx context.Context, filter model.JobFilter, page, limit int) ([]*model.Job, int64, error) {
	return q.store.List(ctx, filter, page, limit)
}

// Len returns the number of queued jobs, including the running one
func (q *JobQueue) Len() int {
	return q.lane.Len()
}

// Recover re-queues unfinished jobs left by a previous process. Pending jobs
// are queued again in creation order with freshly resolved credentials; jobs
// that were running are finished as interrupted. Call before Start.
func (q *JobQueue) Recover(ctx context.Context, envs EnvironmentResolver) (int, error) {
	jobs, err := q.store.ListUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unfinished jobs: %w", err)
	}

	requeued := 0
	for _, job := range jobs {
		if job.Status == model.JobRunning {
			if err := q.store.Finish(ctx, job.ID, model.JobError, "interrupted by restart", q.now()); err != nil {
				return requeued, fmt.Errorf("failed to finish interrupted job %s: %w", job.ID, err)
			}
			slog.Warn("Push job interrupted by restart", "job_id", job.ID)
			continue
		}

		env, err := envs.ResolveEnvironment(job.Environment)
		if err != nil && !errors.Is(err, model.ErrUnknownEnvironment) {
			return requeued, err
		}
		// an unknown environment leaves env empty; the runner fails the job
		env.Name = job.Environment

		q.lane.Submit(worker.Job{
			ID: job.ID,
			Auth: model.AuthContext{
				User:        job.User,
				Environment: job.Environment,
				Env:         env,
			},
		})
		requeued++
	}

	if len(jobs) > 0 {
		slog.Info("Recovered unfinished push jobs", "requeued", requeued, "interrupted", len(jobs)-requeued)
	}
	return requeued, nil
}
