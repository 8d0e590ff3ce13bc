package worker

import (
	"context"

	"github.com/dandantas/pimpush/internal/model"
)

// Job is a queued push job. Auth is captured at enqueue time and travels with
// the entry because stores never persist credentials.
type Job struct {
	ID   string
	Auth model.AuthContext
}

// RunFunc processes one job to a terminal state. It returns when the job is
// finished, gone from the store, or ctx is cancelled.
type RunFunc func(ctx context.Context, job Job)
