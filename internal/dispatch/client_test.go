package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dispatchRequest() *models.DispatchRequest {
	return &models.DispatchRequest{
		Engine: "yadage",
		Payload: map[string]any{
			"yadage_payload": map[string]any{
				"toplevel":    "workflow.yaml",
				"workflow":    map[string]any{},
				"nparallel":   2,
				"preset_pars": map[string]any{},
			},
		},
	}
}

func TestCreateWorkflow_Success(t *testing.T) {
	var calls int
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/workflows", r.URL.Path)
		assert.Equal(t, "yadage", r.URL.Query().Get("engine"))
		assert.Equal(t, "default", r.URL.Query().Get("organization"))
		assert.Equal(t, "u1", r.URL.Query().Get("user"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"message":     "Analysis successfully launched",
			"workflow_id": "cdcf48b1-c2f3-4693-8230-b066e088c6ac",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	result, err := client.CreateWorkflow(context.Background(), dispatchRequest(), "default", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Analysis successfully launched", result.Message)
	assert.Equal(t, "cdcf48b1-c2f3-4693-8230-b066e088c6ac", result.WorkflowID)
	assert.Equal(t, 1, calls, "exactly one submission per call")

	payload, ok := gotBody["yadage_payload"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, payload, 4)
}

func TestCreateWorkflow_UpstreamErrorPreservedVerbatim(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "Either organization or user doesn't exist."})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.CreateWorkflow(context.Background(), dispatchRequest(), "default", "u1")
	require.Error(t, err)
	assert.Equal(t, apperrors.UpstreamDispatch, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Either organization or user doesn't exist.")
	assert.Equal(t, 1, calls, "no retry on upstream failure")
}

func TestCreateWorkflow_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.CreateWorkflow(context.Background(), dispatchRequest(), "default", "u1")
	assert.Equal(t, apperrors.UpstreamDispatch, apperrors.KindOf(err))
}

func TestListWorkflows_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "w1", "organization": "default", "status": "running", "user": "u1"},
			{"id": "w2", "organization": "default", "status": "finished", "user": "u1"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	workflows, err := client.ListWorkflows(context.Background(), "default", "u1")
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, models.WorkflowSummary{ID: "w1", Organization: "default", Status: "running", User: "u1"}, workflows[0])
}

func TestListWorkflows_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "controller down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.ListWorkflows(context.Background(), "default", "u1")
	assert.Equal(t, apperrors.UpstreamQuery, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "controller down")
}
