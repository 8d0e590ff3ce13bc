package recordapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.Equal(t, "closed", cb.GetStateName())
	cb.RecordFailure()
	assert.Equal(t, "open", cb.GetStateName())
	assert.False(t, cb.CanAttempt())

	now = now.Add(time.Minute)
	assert.True(t, cb.CanAttempt())
	assert.Equal(t, "half-open", cb.GetStateName())

	cb.RecordFailure()
	assert.Equal(t, "open", cb.GetStateName())

	now = now.Add(time.Minute)
	assert.True(t, cb.CanAttempt())
	cb.RecordSuccess()
	assert.Equal(t, "closed", cb.GetStateName())
}

func TestCircuitBreaker_DisabledWithZeroThreshold(t *testing.T) {
	cb := NewCircuitBreaker(0, time.Minute)
	for i := 0; i < 10; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.CanAttempt())
	assert.Equal(t, "closed", cb.GetStateName())
}
