package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/reanahub/reana-relay/internal/models"
	"github.com/reanahub/reana-relay/internal/repository"
)

// UserAdminService provides administrative operations over the identity
// store. Every operation is gated by the admin access token.
type UserAdminService struct {
	identity *IdentityService
	repo     UserRepository
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(identity *IdentityService, repo UserRepository) *UserAdminService {
	return &UserAdminService{identity: identity, repo: repo}
}

// List returns all users matching the filter conjunction. Requires the
// admin access token.
func (s *UserAdminService) List(ctx context.Context, adminToken string, filter repository.UserFilter) ([]models.User, error) {
	if _, err := s.identity.RequireAdmin(ctx, adminToken); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// Create registers a new user with the given email and optional token.
// Requires the admin access token.
func (s *UserAdminService) Create(ctx context.Context, adminToken, email, token string) (*models.User, error) {
	if _, err := s.identity.RequireAdmin(ctx, adminToken); err != nil {
		return nil, err
	}
	return s.identity.Create(ctx, email, token)
}

// Export writes all users as CSV, one row per user: id, email,
// access_token. Every field is quoted and rows end with a bare newline, no
// header row. The format must stay byte-stable: Import consumes it and
// external tooling depends on it.
func (s *UserAdminService) Export(ctx context.Context, adminToken string) ([]byte, error) {
	if _, err := s.identity.RequireAdmin(ctx, adminToken); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var buf bytes.Buffer
	for _, u := range users {
		buf.WriteString(csvRow(u.ID, u.Email, u.AccessToken))
	}
	return buf.Bytes(), nil
}

// Import reads CSV rows of (id, email, access_token) and inserts them all
// in one transaction. This is a restore path: tokens are taken verbatim,
// never generated. A constraint violation on any row fails the whole
// import and leaves the store unchanged. Returns the number of imported
// users.
func (s *UserAdminService) Import(ctx context.Context, adminToken string, input io.Reader) (int, error) {
	if _, err := s.identity.RequireAdmin(ctx, adminToken); err != nil {
		return 0, err
	}
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = 3
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse users csv: %w", err)
	}
	users := make([]models.User, 0, len(records))
	for _, row := range records {
		users = append(users, models.User{ID: row[0], Email: row[1], AccessToken: row[2]})
	}
	if err := s.repo.ImportAll(ctx, users); err != nil {
		return 0, err
	}
	return len(users), nil
}

// csvRow formats one always-quoted, newline-terminated CSV row.
func csvRow(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",") + "\n"
}
