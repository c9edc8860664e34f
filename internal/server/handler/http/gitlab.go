package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/reanahub/reana-relay/internal/gitlab"
	"github.com/reanahub/reana-relay/internal/middleware"
	"github.com/reanahub/reana-relay/internal/models"
)

// GitLabService defines the GitLab account integration operations
// required by the HTTP handlers.
type GitLabService interface {
	// ConnectAccount exchanges an OAuth authorization code and stores
	// the resulting token as the user's GitLab secret.
	ConnectAccount(ctx context.Context, user *models.User, code string) error
	// Projects lists the projects the user's stored token can access.
	Projects(ctx context.Context, user *models.User) ([]gitlab.Project, error)
	// CreateHook registers a webhook on the given project pointing back
	// at this server.
	CreateHook(ctx context.Context, user *models.User, projectID int) (int, error)
}

// GitLabHandler handles GitLab account connection, project listing and
// webhook registration requests.
type GitLabHandler struct {
	Service GitLabService
}

// Connect completes the GitLab OAuth flow. With a "code" query
// parameter it exchanges the authorization code and stores the token;
// without one it answers a plain liveness response.
func (h *GitLabHandler) Connect(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
		return
	}
	user := middleware.GetUserFromContext(r.Context())
	if err := h.Service.ConnectAccount(r.Context(), user, code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "GitLab account connected"})
}

// Projects lists the GitLab projects the caller is a member of.
func (h *GitLabHandler) Projects(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	projects, err := h.Service.Projects(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// createHookRequest is the JSON payload for webhook registration.
type createHookRequest struct {
	ProjectID int `json:"project_id"`
}

// CreateHook registers a push/merge-request webhook on a project so
// future events reach the analysis webhook endpoint.
func (h *GitLabHandler) CreateHook(w http.ResponseWriter, r *http.Request) {
	var req createHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "project_id not specified"})
		return
	}
	user := middleware.GetUserFromContext(r.Context())
	hookID, err := h.Service.CreateHook(r.Context(), user, req.ProjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": hookID})
}
