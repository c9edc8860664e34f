// Package service provides the business logic of the submission front door,
// delegating persistence to repositories.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
	"github.com/reanahub/reana-relay/internal/repository"
)

// UserRepository defines the persistence operations required by the
// identity service.
type UserRepository interface {
	// GetByToken returns the user owning the token, or nil if none.
	GetByToken(ctx context.Context, token string) (*models.User, error)
	// GetByID returns the user with the given id, or nil if none.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Create inserts a new user transactionally.
	Create(ctx context.Context, user models.User) error
	// FindOrCreateByEmail returns the user with the email, creating it
	// atomically via newUser when absent.
	FindOrCreateByEmail(ctx context.Context, email string, newUser func() models.User) (*models.User, error)
	// List returns users matching the filter conjunction.
	List(ctx context.Context, filter repository.UserFilter) ([]models.User, error)
	// ImportAll inserts all users in one all-or-nothing transaction.
	ImportAll(ctx context.Context, users []models.User) error
}

// IdentityService resolves and manages user identities.
type IdentityService struct {
	repo UserRepository
	// adminID is the fixed id of the distinguished admin user.
	adminID string
}

// NewIdentityService constructs an IdentityService using the provided
// repository and the configured admin user id.
func NewIdentityService(repo UserRepository, adminID string) *IdentityService {
	return &IdentityService{repo: repo, adminID: adminID}
}

// Resolve returns the user owning the given access token. Any token that
// does not match exactly one user fails with an Authentication error; the
// message never reveals which part of the credential was wrong.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.New(apperrors.Authentication, "token not valid")
	}
	user, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if user == nil {
		return nil, apperrors.New(apperrors.Authentication, "token not valid")
	}
	return user, nil
}

// RequireAdmin loads the admin user and checks that candidate exactly
// equals its access token, using a constant-time comparison. Every
// administrative operation must pass through here before touching other
// users' data.
func (s *IdentityService) RequireAdmin(ctx context.Context, candidate string) (*models.User, error) {
	admin, err := s.repo.GetByID(ctx, s.adminID)
	if err != nil {
		return nil, fmt.Errorf("load admin user: %w", err)
	}
	if admin == nil {
		return nil, apperrors.New(apperrors.Authorization, "admin access token invalid")
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(admin.AccessToken)) != 1 {
		return nil, apperrors.New(apperrors.Authorization, "admin access token invalid")
	}
	return admin, nil
}

// Create registers a new user. When token is empty a fresh one is
// generated from a secure random source.
func (s *IdentityService) Create(ctx context.Context, email, token string) (*models.User, error) {
	if token == "" {
		token = GenerateToken()
	}
	user := models.User{ID: uuid.NewString(), Email: email, AccessToken: token}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByEmail provisions a user from an external identity event.
// Calling it twice with the same email yields the same user.
func (s *IdentityService) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindOrCreateByEmail(ctx, email, func() models.User {
		return models.User{ID: uuid.NewString(), Email: email, AccessToken: GenerateToken()}
	})
}

// GenerateToken returns a fresh access token: 16 cryptographically random
// bytes, URL-safe base64 encoded without padding.
func GenerateToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
