package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dandantas/pimpush/internal/handler"
	"github.com/dandantas/pimpush/internal/model"
)

// APIClient talks to a running push service
type APIClient struct {
	baseURL        string
	user           string
	identityHeader string
	httpClient     *http.Client
}

// NewAPIClient creates a client acting as user
func NewAPIClient(baseURL, user, identityHeader string) *APIClient {
	return &APIClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		user:           user,
		identityHeader: identityHeader,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Enqueue submits rows for the named environment
func (c *APIClient) Enqueue(ctx context.Context, environment string, rows []model.Row) (*handler.EnqueueResponse, error) {
	var resp handler.EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/push-jobs", handler.EnqueueRequest{
		Environment: environment,
		Rows:        rows,
	}, http.StatusAccepted, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches a job snapshot
func (c *APIClient) Status(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	var snap model.JobSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/push-jobs/"+url.PathEscape(jobID), nil, http.StatusOK, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List fetches a page of job history
func (c *APIClient) List(ctx context.Context, status, user string, page, limit int) (*handler.JobListResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if user != "" {
		q.Set("user", user)
	}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))

	var resp handler.JobListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/push-jobs?"+q.Encode(), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Wait polls a job until it is terminal, calling onUpdate after each poll
func (c *APIClient) Wait(ctx context.Context, jobID string, interval time.Duration, onUpdate func(*model.JobSnapshot)) (*model.JobSnapshot, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(snap)
		}
		if snap.Status.IsTerminal() {
			return snap, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set(c.identityHeader, c.user)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr handler.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
