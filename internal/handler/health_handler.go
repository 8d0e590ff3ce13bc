package handler

import (
	"context"
	"net/http"
	"time"
)

// StoreStatus is the job store as seen by health checks
type StoreStatus interface {
	Ping(ctx context.Context) error
	Name() string
}

// HealthHandler handles service health and readiness checks
type HealthHandler struct {
	store        StoreStatus
	queueLen     func() int
	breakerState func() string
	startTime    time.Time
	version      string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store StoreStatus, queueLen func() int, breakerState func() string, version string) *HealthHandler {
	return &HealthHandler{
		store:        store,
		queueLen:     queueLen,
		breakerState: breakerState,
		startTime:    time.Now(),
		version:      version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Store         string `json:"store"`
	StoreStatus   string `json:"store_status"`
	QueueLength   int    `json:"queue_length"`
	RecordAPI     string `json:"record_api_circuit"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready       bool   `json:"ready"`
	Store       string `json:"store"`
	StoreStatus string `json:"store_status"`
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Store:         h.store.Name(),
		StoreStatus:   h.storeStatus(r.Context()),
		QueueLength:   h.queueLen(),
		RecordAPI:     h.breakerState(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}

// Ready returns the service readiness status
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.storeStatus(r.Context())
	ready := status == "connected"

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Ready:       ready,
		Store:       h.store.Name(),
		StoreStatus: status,
	})
}

func (h *HealthHandler) storeStatus(ctx context.Context) string {
	if err := h.store.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
