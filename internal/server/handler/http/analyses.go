// Package http provides the HTTP handlers and routing for the relay API.
package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-playground/webhooks/v6/gitlab"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/metrics"
	"github.com/reanahub/reana-relay/internal/middleware"
	"github.com/reanahub/reana-relay/internal/models"
)

// defaultOrganization is used when the caller does not name one.
const defaultOrganization = "default"

// AnalysisService defines the submission operations required by the
// analysis handlers.
type AnalysisService interface {
	// SubmitUpload resolves an uploaded specification document and
	// dispatches it to the workflow controller.
	SubmitUpload(ctx context.Context, user *models.User, engine string, payload []byte, organization string) (*models.DispatchResult, error)
	// SubmitWebhook resolves a source-control webhook event and
	// dispatches the resulting specification.
	SubmitWebhook(ctx context.Context, user *models.User, event any, organization string) (*models.DispatchResult, *models.WebhookContext, error)
	// List returns the caller's workflows from the controller.
	List(ctx context.Context, user *models.User, organization string) ([]models.WorkflowSummary, error)
}

// AnalysisHandler handles analysis submission and listing requests.
type AnalysisHandler struct {
	Service AnalysisService
	Metrics metrics.Metrics

	hook *gitlab.Webhook
}

// NewAnalysisHandler constructs an AnalysisHandler around the given
// submission service.
func NewAnalysisHandler(service AnalysisService, m metrics.Metrics) (*AnalysisHandler, error) {
	hook, err := gitlab.New()
	if err != nil {
		return nil, err
	}
	return &AnalysisHandler{Service: service, Metrics: m, hook: hook}, nil
}

// Create handles direct analysis submissions. It expects a multipart
// body with an "analysis_payload" file part and an "engine" query
// parameter, and responds with the controller's dispatch result.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	engine := r.URL.Query().Get("engine")
	if engine == "" {
		writeError(w, apperrors.New(apperrors.UnsupportedEngine, "analysis engine not specified"))
		return
	}
	organization := r.URL.Query().Get("organization")
	if organization == "" {
		organization = defaultOrganization
	}

	file, _, err := r.FormFile("analysis_payload")
	if err != nil {
		writeError(w, apperrors.New(apperrors.MalformedSpec, "analysis payload file missing"))
		return
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.MalformedSpec, "could not read analysis payload", err))
		return
	}

	result, err := h.Service.SubmitUpload(r.Context(), user, engine, payload, organization)
	if err != nil {
		h.Metrics.IncSubmission(engine, "error")
		writeError(w, err)
		return
	}
	h.Metrics.IncSubmission(engine, "success")
	writeJSON(w, http.StatusOK, result)
}

// Webhook handles GitLab webhook deliveries. Push and merge request
// events trigger a submission; any other event kind is rejected.
func (h *AnalysisHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	organization := r.URL.Query().Get("organization")
	if organization == "" {
		organization = defaultOrganization
	}

	event, err := h.hook.Parse(r, gitlab.PushEvents, gitlab.MergeRequestEvents)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.UnsupportedEvent, "unsupported webhook event", err))
		return
	}

	result, wctx, err := h.Service.SubmitWebhook(r.Context(), user, event, organization)
	if err != nil {
		h.Metrics.IncSubmission("webhook", "error")
		writeError(w, err)
		return
	}
	h.Metrics.IncSubmission("webhook", "success")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     result.Message,
		"workflow_id": result.WorkflowID,
		"repository":  wctx.RepositoryPath,
		"branch":      wctx.Branch,
		"commit_sha":  wctx.CommitSHA,
	})
}

// List returns the caller's workflows as reported by the controller.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	organization := r.URL.Query().Get("organization")
	if organization == "" {
		organization = defaultOrganization
	}

	workflows, err := h.Service.List(r.Context(), user, organization)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workflows)
}
