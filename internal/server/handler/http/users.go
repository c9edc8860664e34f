package http

import (
	"context"
	"io"
	"net/http"

	"github.com/reanahub/reana-relay/internal/models"
	"github.com/reanahub/reana-relay/internal/repository"
)

// UserAdminService defines the admin-gated user management operations
// required by the user handlers. Every method validates the admin token
// before touching user records.
type UserAdminService interface {
	List(ctx context.Context, adminToken string, filter repository.UserFilter) ([]models.User, error)
	Create(ctx context.Context, adminToken, email, token string) (*models.User, error)
	Export(ctx context.Context, adminToken string) ([]byte, error)
	Import(ctx context.Context, adminToken string, input io.Reader) (int, error)
}

// UserHandler handles admin user management requests.
type UserHandler struct {
	Service UserAdminService
}

// List returns users matching the id/email/access_token filters.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.UserFilter{
		ID:          q.Get("id"),
		Email:       q.Get("email"),
		AccessToken: q.Get("user_access_token"),
	}
	users, err := h.Service.List(r.Context(), q.Get("admin_access_token"), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create registers a new user with the given email, generating an
// access token unless one is supplied.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "user email not specified"})
		return
	}
	user, err := h.Service.Create(r.Context(), q.Get("admin_access_token"), email, q.Get("user_access_token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Export streams all users as CSV, one row per user in (id, email,
// access_token) order with no header.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Export(r.Context(), r.URL.Query().Get("admin_access_token"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import loads users from a CSV request body. Either every row is
// persisted or none are.
func (h *UserHandler) Import(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.Import(r.Context(), r.URL.Query().Get("admin_access_token"), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "users imported", "count": count})
}
