package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/dandantas/pimpush/internal/recordapi"
	"github.com/dandantas/pimpush/internal/service"
	"github.com/dandantas/pimpush/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnvironments map[string]model.EnvConfig

func (e testEnvironments) ResolveEnvironment(name string) (model.EnvConfig, error) {
	env, ok := e[name]
	if !ok {
		return model.EnvConfig{}, fmt.Errorf("%w: %q", model.ErrUnknownEnvironment, name)
	}
	return env, nil
}

// newTestServer wires the HTTP surface around a queue whose runner is never
// started, so enqueued jobs stay pending.
func newTestServer(t *testing.T) (http.Handler, *service.JobQueue) {
	t.Helper()

	store := model.NewMemoryJobStore()
	client := recordapi.NewClient(recordapi.NewHTTPClient(time.Second), recordapi.Options{})
	fields := model.DefaultFieldMap()
	queue := service.NewJobQueue(store, service.NewPushRunner(store, service.NewRowProcessor(client, fields)))

	envs := testEnvironments{
		"sandbox": {Name: "sandbox", RestURL: "https://erp.test", ResourceType: "inventoryItem", Auth: model.Auth{Type: "bearer", Token: "t"}},
	}

	router := NewRouter(
		NewPushHandler(queue, envs),
		NewMappingHandler(fields, []string{"sandbox"}),
		NewHealthHandler(store, queue.Len, client.BreakerState, "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET, POST, OPTIONS", AllowedHeaders: "*"},
		"X-Remote-User",
	)
	return router.Handler(), queue
}

func do(h http.Handler, method, path, body, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Remote-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEnqueue_RequiresIdentity(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/v1/push-jobs", `{"environment":"sandbox","rows":[{"Internal ID":"1"}]}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnqueue_ValidationErrors(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed body", `{`},
		{"missing environment", `{"rows":[{"Internal ID":"1"}]}`},
		{"unknown environment", `{"environment":"production","rows":[{"Internal ID":"1"}]}`},
		{"no rows", `{"environment":"sandbox","rows":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/v1/push-jobs", tt.body, "alice")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEnqueue_ReturnsQueuePosition(t *testing.T) {
	h, _ := newTestServer(t)
	body := `{"environment":"sandbox","rows":[{"Internal ID":"1","Display Name":"Mug"}]}`

	first := do(h, http.MethodPost, "/api/v1/push-jobs", body, "alice")
	require.Equal(t, http.StatusAccepted, first.Code)

	var resp EnqueueResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, 1, resp.QueuePos)
	assert.Equal(t, 1, resp.QueueTotal)

	second := do(h, http.MethodPost, "/api/v1/push-jobs", body, "bob")
	require.Equal(t, http.StatusAccepted, second.Code)
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.QueuePos)
	assert.Equal(t, 2, resp.QueueTotal)

	status := do(h, http.MethodGet, "/api/v1/push-jobs/"+resp.JobID, "", "bob")
	require.Equal(t, http.StatusOK, status.Code)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &snap))
	assert.Equal(t, "pending", snap["status"])
	assert.Equal(t, float64(2), snap["queuePos"])
	assert.Equal(t, float64(2), snap["queueTotal"])
	assert.Equal(t, float64(0), snap["processed"])
	assert.Equal(t, float64(1), snap["total"])
	assert.Equal(t, "bob", snap["user"])
	assert.NotContains(t, status.Body.String(), `"token"`)
}

func TestEnqueue_AcceptsNonStringCells(t *testing.T) {
	h, queue := newTestServer(t)
	body := `{"environment":"sandbox","rows":[{"Internal ID":123,"Base Price":19.99,"Inactive":false,"Vendor":null}]}`

	rec := do(h, http.MethodPost, "/api/v1/push-jobs", body, "alice")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp EnqueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	snap, err := queue.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, model.Row{
		"Internal ID": "123",
		"Base Price":  "19.99",
		"Inactive":    "false",
		"Vendor":      "",
	}, snap.Rows[0])
}

func TestGet_UnknownJobIsNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodGet, "/api/v1/push-jobs/never-created", "", "alice")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job not found")
}

func TestList_FiltersByUser(t *testing.T) {
	h, _ := newTestServer(t)
	body := `{"environment":"sandbox","rows":[{"Internal ID":"1"}]}`
	do(h, http.MethodPost, "/api/v1/push-jobs", body, "alice")
	do(h, http.MethodPost, "/api/v1/push-jobs", body, "bob")

	rec := do(h, http.MethodGet, "/api/v1/push-jobs?user=alice&status=pending", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "alice", resp.Results[0].User)

	rec = do(h, http.MethodGet, "/api/v1/push-jobs?status=bogus", "", "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFieldMappingsAndHealth(t *testing.T) {
	h, queue := newTestServer(t)
	do(h, http.MethodPost, "/api/v1/push-jobs", `{"environment":"sandbox","rows":[{"Internal ID":"1"}]}`, "alice")

	rec := do(h, http.MethodGet, "/api/v1/field-mappings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mapping MappingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mapping))
	assert.Equal(t, "Internal ID", mapping.IDField)
	assert.Equal(t, []string{"sandbox"}, mapping.Environments)

	rec = do(h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "memory", health.Store)
	assert.Equal(t, "connected", health.StoreStatus)
	assert.Equal(t, queue.Len(), health.QueueLength)
	assert.Equal(t, 1, health.QueueLength)
	assert.Equal(t, "closed", health.RecordAPI)

	rec = do(h, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
