package recordapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(restURL string) model.EnvConfig {
	env := model.EnvConfig{
		Name:    "sandbox",
		RestURL: restURL,
		Auth:    model.Auth{Type: "bearer", Token: "secret"},
	}
	env.SetDefaults()
	return env
}

func testClient(opts Options) *Client {
	if opts.Retry.InitialDelayMs == 0 {
		opts.Retry.InitialDelayMs = 1
	}
	return NewClient(NewHTTPClient(5*time.Second), opts)
}

func TestPatchRecord_EmptyBodyReturnsStatusMarker(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/inventoryItem/123", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := testClient(Options{})
	resp, err := client.PatchRecord(context.Background(), testEnv(srv.URL), "123", map[string]interface{}{"displayName": "Mug"})

	require.NoError(t, err)
	assert.Equal(t, "204 No Content", resp.Value())
	assert.Equal(t, map[string]interface{}{"displayName": "Mug"}, gotBody)
}

func TestDo_ParsesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"123"}`))
	}))
	defer srv.Close()

	resp, err := testClient(Options{}).Do(context.Background(), testEnv(srv.URL), http.MethodGet, srv.URL+"/x", nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "123"}, resp.Value())
}

func TestDo_ErrorStatusReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"title":"Bad Request","o:errorDetails":[{"detail":"Invalid field value cost."}]}`))
	}))
	defer srv.Close()

	resp, err := testClient(Options{}).PatchRecord(context.Background(), testEnv(srv.URL), "1", map[string]interface{}{})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Invalid field value cost.")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDo_RetriesThrottledResponses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := testClient(Options{Retry: model.RetryConfig{MaxAttempts: 3}})
	_, err := client.PatchRecord(context.Background(), testEnv(srv.URL), "1", map[string]interface{}{})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(Options{Retry: model.RetryConfig{MaxAttempts: 5}})
	_, err := client.PatchRecord(context.Background(), testEnv(srv.URL), "1", map[string]interface{}{})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_CircuitBreakerOpensAfterServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(Options{BreakerThreshold: 2, BreakerCooldown: time.Hour})
	env := testEnv(srv.URL)

	for i := 0; i < 2; i++ {
		_, err := client.PatchRecord(context.Background(), env, "1", map[string]interface{}{})
		require.Error(t, err)
	}

	_, err := client.PatchRecord(context.Background(), env, "1", map[string]interface{}{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "open", client.BreakerState())
}

func TestRetryStrategy(t *testing.T) {
	rs := NewRetryStrategy(model.RetryConfig{MaxAttempts: 3, InitialDelayMs: 100, MaxDelayMs: 250, Multiplier: 2})

	assert.True(t, rs.ShouldRetry(1, http.StatusTooManyRequests))
	assert.True(t, rs.ShouldRetry(2, http.StatusServiceUnavailable))
	assert.False(t, rs.ShouldRetry(3, http.StatusTooManyRequests))
	assert.False(t, rs.ShouldRetry(1, http.StatusInternalServerError))

	assert.Equal(t, 100*time.Millisecond, rs.CalculateDelay(1, ""))
	assert.Equal(t, 200*time.Millisecond, rs.CalculateDelay(2, ""))
	assert.Equal(t, 250*time.Millisecond, rs.CalculateDelay(3, ""))
	assert.Equal(t, 250*time.Millisecond, rs.CalculateDelay(1, "10"))
	assert.Equal(t, time.Duration(0), rs.CalculateDelay(1, "0"))
}

func TestNewHTTPClient_SetsUserAgentAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(50 * time.Millisecond)

	resp, err := client.Get(srv.URL + "/fast")
	require.NoError(t, err)
	resp.Body.Close()

	_, err = client.Get(srv.URL + "/slow")
	assert.Error(t, err)
}
