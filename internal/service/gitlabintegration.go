package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/reanahub/reana-relay/internal/gitlab"
	"github.com/reanahub/reana-relay/internal/models"
)

// GitLabAPI covers the GitLab calls the integration needs beyond raw-file
// fetching.
type GitLabAPI interface {
	ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code, redirectURL string) (string, error)
	CurrentUsername(ctx context.Context, token string) (string, error)
	ListProjects(ctx context.Context, token string) ([]gitlab.Project, error)
	AddProjectHook(ctx context.Context, token string, projectID int, hookURL, hookToken string) (int, error)
}

// SecretStore is the read/write secret access the integration needs.
type SecretStore interface {
	GetSecret(ctx context.Context, ownerID, name string) ([]byte, error)
	SetSecrets(ctx context.Context, ownerID string, secrets []models.Secret) error
}

// GitLabIntegrationOptions holds the OAuth application credentials and the
// URLs the integration advertises.
type GitLabIntegrationOptions struct {
	OAuthAppID     string
	OAuthAppSecret string
	RedirectURL    string
	// PublicURL is this server's externally reachable base URL; webhook
	// deliveries are sent to PublicURL + the webhook route.
	PublicURL string
}

// webhookRoute is where registered GitLab hooks deliver their events.
const webhookRoute = "/api/analyses/webhook"

// GitLabIntegrationService connects user accounts to GitLab and manages
// project webhooks on their behalf.
type GitLabIntegrationService struct {
	api   GitLabAPI
	vault SecretStore
	opts  GitLabIntegrationOptions
}

// NewGitLabIntegrationService constructs a GitLabIntegrationService.
func NewGitLabIntegrationService(api GitLabAPI, vault SecretStore, opts GitLabIntegrationOptions) *GitLabIntegrationService {
	return &GitLabIntegrationService{api: api, vault: vault, opts: opts}
}

// ConnectAccount exchanges an OAuth authorization code for a GitLab token,
// resolves the GitLab username, and stores both as the user's secrets,
// overwriting previous values.
func (s *GitLabIntegrationService) ConnectAccount(ctx context.Context, user *models.User, code string) error {
	token, err := s.api.ExchangeOAuthCode(ctx, s.opts.OAuthAppID, s.opts.OAuthAppSecret, code, s.opts.RedirectURL)
	if err != nil {
		return err
	}
	username, err := s.api.CurrentUsername(ctx, token)
	if err != nil {
		return err
	}
	secrets := []models.Secret{
		{Name: gitlabTokenSecret, Value: []byte(token), Kind: models.SecretEnv},
		{Name: "gitlab_user", Value: []byte(username), Kind: models.SecretEnv},
	}
	if err := s.vault.SetSecrets(ctx, user.ID, secrets); err != nil {
		return fmt.Errorf("store gitlab secrets: %w", err)
	}
	return nil
}

// Projects lists the GitLab projects of the user's connected account.
func (s *GitLabIntegrationService) Projects(ctx context.Context, user *models.User) ([]gitlab.Project, error) {
	token, err := s.vault.GetSecret(ctx, user.ID, gitlabTokenSecret)
	if err != nil {
		return nil, err
	}
	return s.api.ListProjects(ctx, string(token))
}

// CreateHook registers a webhook on the given project delivering push and
// merge-request events back to this server. The user's access token is
// carried both in the delivery URL and as the hook's secret token, so
// deliveries authenticate as that user.
func (s *GitLabIntegrationService) CreateHook(ctx context.Context, user *models.User, projectID int) (int, error) {
	token, err := s.vault.GetSecret(ctx, user.ID, gitlabTokenSecret)
	if err != nil {
		return 0, err
	}
	hookURL := s.opts.PublicURL + webhookRoute + "?access_token=" + url.QueryEscape(user.AccessToken)
	return s.api.AddProjectHook(ctx, string(token), projectID, hookURL, user.AccessToken)
}
