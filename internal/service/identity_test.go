package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
	"github.com/reanahub/reana-relay/internal/repository"
)

const testAdminID = "00000000-0000-0000-0000-000000000000"

type mockUserRepo struct {
	GetByTokenFunc          func(ctx context.Context, token string) (*models.User, error)
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	CreateFunc              func(ctx context.Context, user models.User) error
	FindOrCreateByEmailFunc func(ctx context.Context, email string, newUser func() models.User) (*models.User, error)
	ListFunc                func(ctx context.Context, filter repository.UserFilter) ([]models.User, error)
	ImportAllFunc           func(ctx context.Context, users []models.User) error
}

func (m *mockUserRepo) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return m.GetByTokenFunc(ctx, token)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockUserRepo) Create(ctx context.Context, user models.User) error {
	return m.CreateFunc(ctx, user)
}
func (m *mockUserRepo) FindOrCreateByEmail(ctx context.Context, email string, newUser func() models.User) (*models.User, error) {
	return m.FindOrCreateByEmailFunc(ctx, email, newUser)
}
func (m *mockUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	return m.ListFunc(ctx, filter)
}
func (m *mockUserRepo) ImportAll(ctx context.Context, users []models.User) error {
	return m.ImportAllFunc(ctx, users)
}

func TestResolve_ValidToken(t *testing.T) {
	want := &models.User{ID: "u1", Email: "alice@example.org", AccessToken: "tok1"}
	repo := &mockUserRepo{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.User, error) {
			if token != "tok1" {
				t.Errorf("GetByToken received token = %q; want %q", token, "tok1")
			}
			return want, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	got, err := svc.Resolve(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != want {
		t.Errorf("Resolve = %+v; want %+v", got, want)
	}
}

func TestResolve_InvalidToken(t *testing.T) {
	repo := &mockUserRepo{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.User, error) {
			return nil, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	_, err := svc.Resolve(context.Background(), "bogus")
	if apperrors.KindOf(err) != apperrors.Authentication {
		t.Errorf("expected Authentication error, got %v", err)
	}
}

func TestResolve_EmptyToken(t *testing.T) {
	repo := &mockUserRepo{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.User, error) {
			t.Fatal("repository must not be queried with an empty token")
			return nil, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	_, err := svc.Resolve(context.Background(), "")
	if apperrors.KindOf(err) != apperrors.Authentication {
		t.Errorf("expected Authentication error, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := &models.User{ID: testAdminID, Email: "admin@example.org", AccessToken: "admin-secret-token"}
	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id != testAdminID {
				t.Errorf("GetByID received id = %q; want %q", id, testAdminID)
			}
			return admin, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	tests := []struct {
		name      string
		candidate string
		wantOK    bool
	}{
		{"exact match", "admin-secret-token", true},
		{"prefix", "admin-secret", false},
		{"suffix", "secret-token", false},
		{"superstring", "admin-secret-token-extra", false},
		{"empty", "", false},
		{"other user token", "tok1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.RequireAdmin(context.Background(), tt.candidate)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("RequireAdmin returned error: %v", err)
				}
				if got.ID != testAdminID {
					t.Errorf("RequireAdmin = %+v; want admin", got)
				}
				return
			}
			if apperrors.KindOf(err) != apperrors.Authorization {
				t.Errorf("expected Authorization error, got %v", err)
			}
		})
	}
}

func TestRequireAdmin_MissingAdminRecord(t *testing.T) {
	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	_, err := svc.RequireAdmin(context.Background(), "anything")
	if apperrors.KindOf(err) != apperrors.Authorization {
		t.Errorf("expected Authorization error, got %v", err)
	}
}

func TestCreate_GeneratesTokenWhenAbsent(t *testing.T) {
	var created models.User
	repo := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user models.User) error {
			created = user
			return nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	user, err := svc.Create(context.Background(), "carol@example.org", "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.AccessToken == "" {
		t.Fatal("expected a generated access token")
	}
	if created.AccessToken != user.AccessToken {
		t.Errorf("persisted token %q differs from returned token %q", created.AccessToken, user.AccessToken)
	}
	if created.ID == "" {
		t.Error("expected a generated user id")
	}
}

func TestCreate_KeepsExplicitToken(t *testing.T) {
	repo := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user models.User) error { return nil },
	}
	svc := NewIdentityService(repo, testAdminID)

	user, err := svc.Create(context.Background(), "carol@example.org", "explicit-token")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.AccessToken != "explicit-token" {
		t.Errorf("AccessToken = %q; want explicit-token", user.AccessToken)
	}
}

func TestCreate_Conflict(t *testing.T) {
	wantErr := apperrors.New(apperrors.Conflict, "could not create user, possible constraint violation")
	repo := &mockUserRepo{
		CreateFunc: func(ctx context.Context, user models.User) error { return wantErr },
	}
	svc := NewIdentityService(repo, testAdminID)

	_, err := svc.Create(context.Background(), "dup@example.org", "")
	if apperrors.KindOf(err) != apperrors.Conflict {
		t.Errorf("expected Conflict error, got %v", err)
	}
}

func TestFindOrCreateByEmail_GeneratedUserShape(t *testing.T) {
	repo := &mockUserRepo{
		FindOrCreateByEmailFunc: func(ctx context.Context, email string, newUser func() models.User) (*models.User, error) {
			u := newUser()
			if u.Email != email {
				t.Errorf("newUser email = %q; want %q", u.Email, email)
			}
			if u.ID == "" || u.AccessToken == "" {
				t.Errorf("newUser must generate id and token, got %+v", u)
			}
			return &u, nil
		},
	}
	svc := NewIdentityService(repo, testAdminID)

	user, err := svc.FindOrCreateByEmail(context.Background(), "eve@example.org")
	if err != nil {
		t.Fatalf("FindOrCreateByEmail returned error: %v", err)
	}
	if user.Email != "eve@example.org" {
		t.Errorf("Email = %q; want eve@example.org", user.Email)
	}
}

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := GenerateToken()
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token %q is not URL-safe base64: %v", tok, err)
		}
		if len(raw) != 16 {
			t.Fatalf("token decodes to %d bytes; want 16", len(raw))
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = true
	}
}
