package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/service"
	"github.com/dandantas/pimpush/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// PushQueue is the job queue as used by the HTTP surface
type PushQueue interface {
	Enqueue(ctx context.Context, rows []model.Row, auth model.AuthContext) (*service.EnqueueResult, error)
	Get(ctx context.Context, jobID string) (*model.JobSnapshot, error)
	List(ctx context.Context, filter model.JobFilter, page, limit int) ([]*model.Job, int64, error)
}

// PushHandler handles push job submission and polling
type PushHandler struct {
	queue PushQueue
	envs  service.EnvironmentResolver
}

// NewPushHandler creates a new push handler
func NewPushHandler(queue PushQueue, envs service.EnvironmentResolver) *PushHandler {
	return &PushHandler{
		queue: queue,
		envs:  envs,
	}
}

// EnqueueRequest is the body of POST /api/v1/push-jobs
type EnqueueRequest struct {
	Environment string      `json:"environment"`
	Rows        []model.Row `json:"rows"`
}

// EnqueueResponse is returned once a job is queued
type EnqueueResponse struct {
	Success    bool   `json:"success"`
	JobID      string `json:"jobId"`
	QueuePos   int    `json:"queuePos"`
	QueueTotal int    `json:"queueTotal"`
}

// JobListResponse represents a page of jobs
type JobListResponse struct {
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
	Results []model.JobListItem `json:"results"`
}

// Enqueue handles POST /api/v1/push-jobs
func (h *PushHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req.Environment = strings.TrimSpace(req.Environment)
	if req.Environment == "" {
		writeError(w, http.StatusBadRequest, "environment is required")
		return
	}

	env, err := h.envs.ResolveEnvironment(req.Environment)
	if err != nil {
		if errors.Is(err, model.ErrUnknownEnvironment) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.queue.Enqueue(r.Context(), req.Rows, model.AuthContext{
		User:        user,
		Environment: req.Environment,
		Env:         env,
	})
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.Logger(r.Context()).Error("Failed to enqueue push job", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, EnqueueResponse{
		Success:    true,
		JobID:      result.JobID,
		QueuePos:   result.QueuePos,
		QueueTotal: result.QueueTotal,
	})
}

// Get handles GET /api/v1/push-jobs/{id}
func (h *PushHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	snapshot, err := h.queue.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// List handles GET /api/v1/push-jobs
func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.JobFilter{
		Status: model.JobState(r.URL.Query().Get("status")),
		User:   r.URL.Query().Get("user"),
	}
	switch filter.Status {
	case "", model.JobPending, model.JobRunning, model.JobCompleted, model.JobError:
	default:
		writeError(w, http.StatusBadRequest, "invalid status: "+string(filter.Status))
		return
	}

	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", 20)

	// Enforce max limit
	if limit > 100 {
		limit = 100
	}

	jobs, total, err := h.queue.List(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]model.JobListItem, len(jobs))
	for i, job := range jobs {
		items[i] = job.ToListItem()
	}

	writeJSON(w, http.StatusOK, JobListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: items,
	})
}
