package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLane_RunsJobsInSubmitOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	lane := NewLane(func(ctx context.Context, job Job) {
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
	})
	lane.Start(context.Background())
	defer lane.Stop()

	for _, id := range []string{"a", "b", "c"} {
		lane.Submit(Job{ID: id})
	}

	require.Eventually(t, func() bool { return lane.Len() == 0 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestLane_HeadStaysQueuedWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	lane := NewLane(func(ctx context.Context, job Job) {
		if job.ID == "a" {
			close(started)
			<-release
		}
	})
	lane.Start(context.Background())
	defer lane.Stop()

	pos, total := lane.Submit(Job{ID: "a"})
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, total)
	<-started

	pos, total = lane.Submit(Job{ID: "b"})
	assert.Equal(t, 2, pos)
	assert.Equal(t, 2, total)

	pos, total = lane.Position("a")
	assert.Equal(t, 1, pos)
	assert.Equal(t, 2, total)

	pos, _ = lane.Position("missing")
	assert.Zero(t, pos)

	close(release)
	require.Eventually(t, func() bool { return lane.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLane_StopKeepsInterruptedJob(t *testing.T) {
	started := make(chan struct{})

	lane := NewLane(func(ctx context.Context, job Job) {
		close(started)
		<-ctx.Done()
	})
	lane.Start(context.Background())

	lane.Submit(Job{ID: "a"})
	<-started
	lane.Stop()

	pos, total := lane.Position("a")
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, total)
}
