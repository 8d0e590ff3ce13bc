package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	now := time.Now()

	job := NewJob("j1", []Row{{"Internal ID": "1"}, {"Internal ID": "2"}}, AuthContext{User: "alice", Environment: "sb"}, now)
	require.NoError(t, store.Insert(ctx, job))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, JobPending, got.Status)
	assert.Equal(t, 2, got.Total)
	assert.Zero(t, got.Processed)

	require.NoError(t, store.MarkRunning(ctx, "j1", now))
	require.NoError(t, store.AppendResult(ctx, "j1", RowResult{Row: 0, ItemID: "1", Status: RowSuccess}))

	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, JobRunning, got.Status)
	assert.Equal(t, 1, got.Processed)
	assert.Len(t, got.Results, got.Processed)
	require.NotNil(t, got.StartedAt)

	require.NoError(t, store.Finish(ctx, "j1", JobCompleted, "", now))
	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	require.NotNil(t, got.FinishedAt)
}

func TestMemoryJobStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	require.NoError(t, store.Insert(ctx, NewJob("j1", []Row{{"Internal ID": "1"}}, AuthContext{}, time.Now())))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	got.Rows[0]["Internal ID"] = "changed"
	got.Status = JobError

	again, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Rows[0]["Internal ID"])
	assert.Equal(t, JobPending, again.Status)
}

func TestMemoryJobStore_UnknownJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, store.MarkRunning(ctx, "nope", time.Now()), ErrJobNotFound)
	assert.ErrorIs(t, store.AppendResult(ctx, "nope", RowResult{}), ErrJobNotFound)
	assert.ErrorIs(t, store.Finish(ctx, "nope", JobCompleted, "", time.Now()), ErrJobNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "nope"), ErrJobNotFound)
}

func TestMemoryJobStore_ListAndPurge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	base := time.Now().Add(-time.Hour)

	for i, user := range []string{"alice", "bob", "alice"} {
		id := string(rune('a' + i))
		require.NoError(t, store.Insert(ctx, NewJob(id, []Row{{}}, AuthContext{User: user}, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, store.Finish(ctx, "a", JobCompleted, "", base))

	jobs, total, err := store.List(ctx, JobFilter{User: "alice"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].ID)

	jobs, total, err = store.List(ctx, JobFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].ID)

	unfinished, err := store.ListUnfinished(ctx)
	require.NoError(t, err)
	require.Len(t, unfinished, 2)
	assert.Equal(t, "b", unfinished[0].ID)

	purged, err := store.PurgeFinishedBefore(ctx, base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)
}
