package recordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dandantas/pimpush/internal/model"
)

// ErrCircuitOpen is returned without calling the API while the breaker is open
var ErrCircuitOpen = errors.New("record API circuit breaker is open")

// maxBodyBytes caps how much of a response is kept (1MB)
const maxBodyBytes = 1024 * 1024

// Options tunes the client
type Options struct {
	Retry            model.RetryConfig
	MinInterval      time.Duration // minimum spacing between two calls
	BreakerThreshold int
	BreakerCooldown  time.Duration
	PriceItemsPath   string // JSONPath to the entries of a price collection
	PriceValueField  string // attribute holding the amount of a price row
}

// Response is a captured record API response
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
	Data       interface{} // parsed JSON body, nil when empty or not JSON
	RetryAfter string
}

// Value returns the parsed body, the raw body, or the status marker for empty bodies
func (r *Response) Value() interface{} {
	if r.Data != nil {
		return r.Data
	}
	if len(bytes.TrimSpace(r.Body)) > 0 {
		return string(r.Body)
	}
	return r.Status
}

// APIError is a non-2xx answer from the record API
type APIError struct {
	StatusCode int
	Status     string
	Detail     interface{}
}

func (e *APIError) Error() string {
	if msg := errorDetail(e.Detail); msg != "" {
		return fmt.Sprintf("record API returned %s: %s", e.Status, msg)
	}
	return fmt.Sprintf("record API returned %s", e.Status)
}

// Client issues signed requests against an ERP REST record API.
// Credentials come from the EnvConfig passed on each call.
type Client struct {
	httpClient *http.Client
	breaker    *CircuitBreaker
	opts       Options

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a new record API client
func NewClient(httpClient *http.Client, opts Options) *Client {
	opts.Retry.SetDefaults()
	if opts.PriceItemsPath == "" {
		opts.PriceItemsPath = "$.items"
	}
	if opts.PriceValueField == "" {
		opts.PriceValueField = "price"
	}

	return &Client{
		httpClient: httpClient,
		breaker:    NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		opts:       opts,
	}
}

// RecordURL returns {restUrl}/{resourceType}/{id}
func RecordURL(env model.EnvConfig, id string) string {
	return env.RestURL + "/" + env.ResourceType + "/" + url.PathEscape(id)
}

// PatchRecord updates the primary record with the given attributes
func (c *Client) PatchRecord(ctx context.Context, env model.EnvConfig, id string, fields map[string]interface{}) (*Response, error) {
	return c.Do(ctx, env, http.MethodPatch, RecordURL(env, id), fields)
}

// Do sends a request, retrying throttled answers. A non-2xx final answer is
// returned together with an *APIError.
func (c *Client) Do(ctx context.Context, env model.EnvConfig, method, rawURL string, body interface{}) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	strategy := NewRetryStrategy(c.opts.Retry)

	for attempt := 1; ; attempt++ {
		if !c.breaker.CanAttempt() {
			return nil, ErrCircuitOpen
		}

		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, env, method, rawURL, payload)
		if err != nil {
			c.breaker.RecordFailure()
			return nil, err
		}

		if resp.StatusCode >= 500 {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}

		if strategy.ShouldRetry(attempt, resp.StatusCode) {
			delay := strategy.CalculateDelay(attempt, resp.RetryAfter)
			slog.Warn("Record API throttled, retrying",
				"method", method,
				"url", rawURL,
				"status_code", resp.StatusCode,
				"attempt", attempt,
				"next_retry_ms", delay.Milliseconds(),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return resp, ctx.Err()
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Detail: resp.Value()}
		}

		return resp, nil
	}
}

// send performs a single attempt
func (c *Client) send(ctx context.Context, env model.EnvConfig, method, rawURL string, payload []byte) (*Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.setAuthentication(req, env.Auth); err != nil {
		return nil, fmt.Errorf("failed to set authentication: %w", err)
	}

	httpClient := c.httpClient
	if strings.EqualFold(env.Auth.Type, "oauth1") {
		httpClient = oauth1Client(ctx, c.httpClient, env.Auth)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       bodyBytes,
		RetryAfter: resp.Header.Get("Retry-After"),
	}
	if len(bytes.TrimSpace(bodyBytes)) > 0 {
		var data interface{}
		if json.Unmarshal(bodyBytes, &data) == nil {
			out.Data = data
		}
	}

	slog.Debug("Record API request completed",
		"method", method,
		"url", rawURL,
		"status_code", resp.StatusCode,
		"body_length", len(bodyBytes),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}

// setAuthentication sets header credentials for the environment's auth type.
// OAuth1 requests are signed by the transport instead.
func (c *Client) setAuthentication(req *http.Request, auth model.Auth) error {
	switch strings.ToLower(auth.Type) {
	case "oauth1":
	case "basic":
		req.SetBasicAuth(auth.Username, auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "none", "":
		// No authentication
	default:
		return fmt.Errorf("unsupported auth type: %s", auth.Type)
	}
	return nil
}

// throttle spaces consecutive calls by at least MinInterval
func (c *Client) throttle(ctx context.Context) error {
	if c.opts.MinInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	wait := time.Until(c.lastCall.Add(c.opts.MinInterval))
	if wait < 0 {
		wait = 0
	}
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BreakerState exposes the circuit breaker state for health output
func (c *Client) BreakerState() string {
	return c.breaker.GetStateName()
}

// errorDetail pulls a human-readable message out of an error body
func errorDetail(detail interface{}) string {
	switch v := detail.(type) {
	case string:
		if len(v) > 300 {
			return v[:300]
		}
		return v
	case map[string]interface{}:
		if details, ok := v["o:errorDetails"].([]interface{}); ok && len(details) > 0 {
			if first, ok := details[0].(map[string]interface{}); ok {
				if msg, ok := first["detail"].(string); ok {
					return msg
				}
			}
		}
		for _, key := range []string{"detail", "title", "message", "error"} {
			if msg, ok := v[key].(string); ok {
				return msg
			}
		}
	}
	return ""
}
