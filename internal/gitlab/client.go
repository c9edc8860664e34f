// Package gitlab wraps the GitLab REST API calls the server needs:
// raw-file retrieval, user lookup, project listing, webhook registration
// and the OAuth code exchange.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reanahub/reana-relay/internal/apperrors"
	gl "github.com/xanzy/go-gitlab"
)

// Client talks to one GitLab instance. API calls are authenticated with
// per-user OAuth tokens supplied per call, never with a shared credential.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a Client for the GitLab instance at baseURL
// (e.g. "https://gitlab.com").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) api(token string) (*gl.Client, error) {
	client, err := gl.NewOAuthClient(token, gl.WithBaseURL(c.baseURL+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("build gitlab client: %w", err)
	}
	return client, nil
}

// RawFile fetches the raw content of a repository file at the given ref.
// Transport errors and non-success responses surface as UpstreamFetch
// errors with the GitLab message preserved.
func (c *Client) RawFile(ctx context.Context, token string, projectID int, path, ref string) ([]byte, error) {
	client, err := c.api(token)
	if err != nil {
		return nil, err
	}
	content, _, err := client.RepositoryFiles.GetRawFile(projectID, path, &gl.GetRawFileOptions{
		Ref: gl.Ptr(ref),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamFetch,
			fmt.Sprintf("could not fetch %s from project %d", path, projectID), err)
	}
	return content, nil
}

// CurrentUsername returns the GitLab username the token belongs to.
func (c *Client) CurrentUsername(ctx context.Context, token string) (string, error) {
	client, err := c.api(token)
	if err != nil {
		return "", err
	}
	user, _, err := client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return "", apperrors.Wrap(apperrors.UpstreamFetch, "could not fetch gitlab user", err)
	}
	return user.Username, nil
}

// Project is the subset of GitLab project attributes exposed to callers.
type Project struct {
	ID                int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// ListProjects returns the projects the token's user is a member of.
func (c *Client) ListProjects(ctx context.Context, token string) ([]Project, error) {
	client, err := c.api(token)
	if err != nil {
		return nil, err
	}
	projects, _, err := client.Projects.ListProjects(&gl.ListProjectsOptions{
		Membership: gl.Ptr(true),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamFetch, "could not list gitlab projects", err)
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project{ID: p.ID, PathWithNamespace: p.PathWithNamespace, WebURL: p.WebURL})
	}
	return out, nil
}

// AddProjectHook registers a push + merge-request webhook on the project,
// delivering to hookURL and carrying hookToken so deliveries can be
// attributed to the owning user.
func (c *Client) AddProjectHook(ctx context.Context, token string, projectID int, hookURL, hookToken string) (int, error) {
	client, err := c.api(token)
	if err != nil {
		return 0, err
	}
	hook, _, err := client.Projects.AddProjectHook(projectID, &gl.AddProjectHookOptions{
		URL:                   gl.Ptr(hookURL),
		PushEvents:            gl.Ptr(true),
		MergeRequestsEvents:   gl.Ptr(true),
		EnableSSLVerification: gl.Ptr(false),
		Token:                 gl.Ptr(hookToken),
	}, gl.WithContext(ctx))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.UpstreamFetch,
			fmt.Sprintf("could not create webhook on project %d", projectID), err)
	}
	return hook.ID, nil
}

// ExchangeOAuthCode trades an OAuth authorization code for an access
// token on the instance's /oauth/token endpoint.
func (c *Client) ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code, redirectURL string) (string, error) {
	values := url.Values{}
	values.Set("client_id", clientID)
	values.Set("client_secret", clientSecret)
	values.Set("code", code)
	values.Set("grant_type", "authorization_code")
	values.Set("redirect_uri", redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.UpstreamFetch, "gitlab token exchange failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.Newf(apperrors.UpstreamFetch, "gitlab token exchange failed: %s", resp.Status)
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", apperrors.Wrap(apperrors.UpstreamFetch, "decode gitlab token response", err)
	}
	if token.AccessToken == "" {
		return "", apperrors.New(apperrors.UpstreamFetch, "gitlab access token missing")
	}
	return token.AccessToken, nil
}
