package model

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryJobStore is an in-memory store for push jobs.
// All reads return deep copies so pollers never observe a half-written job.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates a new in-memory job store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*Job),
	}
}

// Insert stores a new job
func (s *MemoryJobStore) Insert(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get retrieves a job snapshot
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns jobs matching the filter, newest first
func (s *MemoryJobStore) List(ctx context.Context, filter JobFilter, page, limit int) ([]*Job, int64, error) {
	s.mu.RLock()
	matched := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.User != "" && job.User != filter.User {
			continue
		}
		matched = append(matched, job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if page < 1 || limit < 1 || start >= len(matched) {
		return []*Job{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

// ListUnfinished returns pending and running jobs, oldest first
func (s *MemoryJobStore) ListUnfinished(ctx context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0)
	for _, job := range s.jobs {
		if !job.Status.IsTerminal() {
			jobs = append(jobs, job.Clone())
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// MarkRunning moves a pending job to running
func (s *MemoryJobStore) MarkRunning(ctx context.Context, jobID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	t := startedAt.UTC()
	job.Status = JobRunning
	job.StartedAt = &t
	return nil
}

// AppendResult records a row outcome and advances the processed counter
func (s *MemoryJobStore) AppendResult(ctx context.Context, jobID string, result RowResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	job.Results = append(job.Results, result)
	job.Processed = len(job.Results)
	return nil
}

// Finish moves a job to a terminal state
func (s *MemoryJobStore) Finish(ctx context.Context, jobID string, status JobState, errMsg string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	t := finishedAt.UTC()
	job.Status = status
	job.Error = errMsg
	job.FinishedAt = &t
	return nil
}

// Delete removes a job
func (s *MemoryJobStore) Delete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[jobID]; !exists {
		return ErrJobNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

// PurgeFinishedBefore evicts terminal jobs that finished before cutoff
func (s *MemoryJobStore) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			purged++
		}
	}
	return purged, nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryJobStore) Ping(ctx context.Context) error {
	return nil
}

// Name identifies the backend in health output
func (s *MemoryJobStore) Name() string {
	return "memory"
}
