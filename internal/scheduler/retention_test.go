package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetentionSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewRetentionSweeper(model.NewMemoryJobStore(), time.Hour, "not a cron")
	assert.Error(t, err)
}

func TestSweep_EvictsOnlyOldTerminalJobs(t *testing.T) {
	ctx := context.Background()
	store := model.NewMemoryJobStore()
	now := time.Now()

	for _, id := range []string{"old", "fresh", "pending"} {
		require.NoError(t, store.Insert(ctx, model.NewJob(id, []model.Row{{}}, model.AuthContext{}, now.Add(-48*time.Hour))))
	}
	require.NoError(t, store.Finish(ctx, "old", model.JobCompleted, "", now.Add(-25*time.Hour)))
	require.NoError(t, store.Finish(ctx, "fresh", model.JobError, "boom", now.Add(-time.Hour)))

	sweeper, err := NewRetentionSweeper(store, 24*time.Hour, "*/10 * * * *")
	require.NoError(t, err)
	sweeper.now = func() time.Time { return now }

	assert.Equal(t, int64(1), sweeper.Sweep(ctx))

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, model.ErrJobNotFound)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "pending")
	assert.NoError(t, err)
}

func TestRetentionSweeper_DisabledWithZeroTTL(t *testing.T) {
	sweeper, err := NewRetentionSweeper(model.NewMemoryJobStore(), 0, "* * * * *")
	require.NoError(t, err)

	sweeper.Start(context.Background())
	sweeper.Stop(context.Background())
}
