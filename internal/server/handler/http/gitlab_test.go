package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/gitlab"
	"github.com/reanahub/reana-relay/internal/models"
	handler "github.com/reanahub/reana-relay/internal/server/handler/http"
)

// fakeGitLabService records calls and returns preconfigured results.
type fakeGitLabService struct {
	connectCalls int
	code         string
	projectID    int

	projects []gitlab.Project
	hookID   int
	err      error
}

func (f *fakeGitLabService) ConnectAccount(ctx context.Context, user *models.User, code string) error {
	f.connectCalls++
	f.code = code
	return f.err
}

func (f *fakeGitLabService) Projects(ctx context.Context, user *models.User) ([]gitlab.Project, error) {
	return f.projects, f.err
}

func (f *fakeGitLabService) CreateHook(ctx context.Context, user *models.User, projectID int) (int, error) {
	f.projectID = projectID
	return f.hookID, f.err
}

func TestGitLabHandler_Connect_NoCode(t *testing.T) {
	fake := &fakeGitLabService{}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodGet, "/api/gitlab", nil)
	w := httptest.NewRecorder()

	h.Connect(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if fake.connectCalls != 0 {
		t.Errorf("service must not be called without a code")
	}
}

func TestGitLabHandler_Connect_WithCode(t *testing.T) {
	fake := &fakeGitLabService{}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodGet, "/api/gitlab?code=oauth-code", nil)
	w := httptest.NewRecorder()

	h.Connect(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201", w.Code)
	}
	if fake.connectCalls != 1 || fake.code != "oauth-code" {
		t.Errorf("connectCalls=%d code=%q", fake.connectCalls, fake.code)
	}
}

func TestGitLabHandler_Connect_ExchangeFails(t *testing.T) {
	fake := &fakeGitLabService{err: apperrors.New(apperrors.UpstreamFetch, "could not exchange OAuth code")}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodGet, "/api/gitlab?code=bad-code", nil)
	w := httptest.NewRecorder()

	h.Connect(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", w.Code)
	}
}

func TestGitLabHandler_Projects(t *testing.T) {
	fake := &fakeGitLabService{projects: []gitlab.Project{
		{ID: 15, PathWithNamespace: "mike/diaspora", WebURL: "https://gitlab.example.org/mike/diaspora"},
	}}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodGet, "/api/gitlab/projects", nil)
	w := httptest.NewRecorder()

	h.Projects(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var resp []gitlab.Project
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 1 || resp[0].PathWithNamespace != "mike/diaspora" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGitLabHandler_CreateHook(t *testing.T) {
	fake := &fakeGitLabService{hookID: 99}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodPost, "/api/gitlab/webhook", strings.NewReader(`{"project_id": 15}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.CreateHook(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201", w.Code)
	}
	if fake.projectID != 15 {
		t.Errorf("projectID = %d; want 15", fake.projectID)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["id"] != float64(99) {
		t.Errorf("id = %v; want 99", resp["id"])
	}
}

func TestGitLabHandler_CreateHook_BadBody(t *testing.T) {
	fake := &fakeGitLabService{}
	h := &handler.GitLabHandler{Service: fake}

	req := httptest.NewRequest(http.MethodPost, "/api/gitlab/webhook", strings.NewReader("not-a-json"))
	w := httptest.NewRecorder()

	h.CreateHook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if fake.projectID != 0 {
		t.Errorf("service must not be called with a bad body")
	}
}
