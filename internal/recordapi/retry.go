package recordapi

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dandantas/pimpush/internal/model"
)

// RetryStrategy retries throttled record API calls with exponential backoff.
// Only 429 and 503 are retried; anything else is reported to the row as-is.
type RetryStrategy struct {
	config model.RetryConfig
}

// NewRetryStrategy creates a new retry strategy
func NewRetryStrategy(config model.RetryConfig) *RetryStrategy {
	config.SetDefaults()
	return &RetryStrategy{
		config: config,
	}
}

// CalculateDelay returns min(initial_delay * multiplier^(attempt-1), max_delay).
// A Retry-After hint from the server wins when it is within max_delay.
func (rs *RetryStrategy) CalculateDelay(attempt int, retryAfter string) time.Duration {
	if attempt <= 0 {
		return 0
	}

	maxDelay := time.Duration(rs.config.MaxDelayMs) * time.Millisecond
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		hinted := time.Duration(secs) * time.Second
		if hinted <= maxDelay {
			return hinted
		}
		return maxDelay
	}

	delayMs := float64(rs.config.InitialDelayMs) * math.Pow(rs.config.Multiplier, float64(attempt-1))
	if delayMs > float64(rs.config.MaxDelayMs) {
		delayMs = float64(rs.config.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// ShouldRetry reports whether another attempt is allowed for this status
func (rs *RetryStrategy) ShouldRetry(attempt int, statusCode int) bool {
	if attempt >= rs.config.MaxAttempts {
		return false
	}
	return statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable
}
