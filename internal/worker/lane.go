package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Lane is a single-consumer FIFO. The head entry stays queued while it runs
// and is removed once RunFunc returns, so at most one job executes at a time
// and a later job never starts before an earlier one.
type Lane struct {
	mu      sync.Mutex
	entries []Job
	wake    chan struct{}

	runFn  RunFunc
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewLane creates a lane that hands each job to fn
func NewLane(fn RunFunc) *Lane {
	return &Lane{
		wake:  make(chan struct{}, 1),
		runFn: fn,
	}
}

// Start launches the consumer goroutine
func (l *Lane) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.loop(ctx)

	slog.Info("Push lane started", "queued", l.Len())
}

// Stop cancels the consumer and waits for it to exit. The job in flight is
// left at the head of the lane.
func (l *Lane) Stop() {
	slog.Info("Stopping push lane")

	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()

	slog.Info("Push lane stopped")
}

// Submit appends a job to the tail and wakes the consumer. It never blocks on
// the running job and returns the new entry's 1-based position and the lane
// length.
func (l *Lane) Submit(job Job) (int, int) {
	l.mu.Lock()
	l.entries = append(l.entries, job)
	pos, total := len(l.entries), len(l.entries)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	slog.Debug("Job submitted to push lane", "job_id", job.ID, "queue_pos", pos)
	return pos, total
}

// Position returns the 1-based rank of id (0 when not queued) and the lane length
func (l *Lane) Position(id string) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == id {
			return i + 1, len(l.entries)
		}
	}
	return 0, len(l.entries)
}

// Len returns the number of queued jobs, including the running one
func (l *Lane) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Lane) head() (Job, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Job{}, false
	}
	return l.entries[0], true
}

func (l *Lane) pop(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) > 0 && l.entries[0].ID == id {
		l.entries[0] = Job{}
		l.entries = l.entries[1:]
	}
}

func (l *Lane) loop(ctx context.Context) {
	defer l.wg.Done()

	for {
		job, ok := l.head()
		if !ok {
			select {
			case <-l.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		l.runFn(ctx, job)

		// cancelled mid-job: keep it at the head
		if ctx.Err() != nil {
			return
		}
		l.pop(job.ID)
	}
}
