package service

import (
	"context"
	"fmt"

	"github.com/go-playground/webhooks/v6/gitlab"
	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/engine"
	"github.com/reanahub/reana-relay/internal/models"
	"gopkg.in/yaml.v3"
)

// specFileName is the well-known specification file fetched from a
// repository on webhook-triggered submissions.
const specFileName = "reana.yaml"

// gitlabTokenSecret is the per-user secret holding the GitLab access token.
const gitlabTokenSecret = "gitlab_access_token"

// SecretGetter reads one secret for one owner.
type SecretGetter interface {
	GetSecret(ctx context.Context, ownerID, name string) ([]byte, error)
}

// SpecFetcher retrieves a repository file at a given ref.
type SpecFetcher interface {
	RawFile(ctx context.Context, token string, projectID int, path, ref string) ([]byte, error)
}

// SpecResolver produces canonical analysis specifications from uploaded
// payloads or source-control webhook events.
type SpecResolver struct {
	engines *engine.Registry
	vault   SecretGetter
	fetcher SpecFetcher
}

// NewSpecResolver constructs a SpecResolver.
func NewSpecResolver(engines *engine.Registry, vault SecretGetter, fetcher SpecFetcher) *SpecResolver {
	return &SpecResolver{engines: engines, vault: vault, fetcher: fetcher}
}

// FromUpload parses an uploaded specification document for the named
// engine. The engine allow-list check happens first, before any field
// extraction.
func (r *SpecResolver) FromUpload(engineName string, payload []byte) (*models.AnalysisSpec, error) {
	adapter, err := r.engines.Get(engineName)
	if err != nil {
		return nil, err
	}
	return adapter.ParseUpload(payload)
}

// FromWebhook derives the webhook context from a parsed GitLab event,
// fetches the repository's specification file at the resolved commit using
// the user's stored GitLab token, and parses it. Push events resolve to
// the project's default branch and checkout sha; merge-request events to
// the source branch and its last commit. Any other event kind is
// unsupported.
func (r *SpecResolver) FromWebhook(ctx context.Context, user *models.User, event any) (*models.AnalysisSpec, *models.WebhookContext, error) {
	var wctx models.WebhookContext
	var projectID int

	switch e := event.(type) {
	case gitlab.PushEventPayload:
		wctx = models.WebhookContext{
			RepositoryPath: e.Project.PathWithNamespace,
			Branch:         e.Project.DefaultBranch,
			CommitSHA:      e.CheckoutSHA,
		}
		projectID = int(e.ProjectID)
	case gitlab.MergeRequestEventPayload:
		wctx = models.WebhookContext{
			RepositoryPath: e.Project.PathWithNamespace,
			Branch:         e.ObjectAttributes.SourceBranch,
			CommitSHA:      e.ObjectAttributes.LastCommit.ID,
		}
		projectID = int(e.ObjectAttributes.TargetProjectID)
	default:
		return nil, nil, apperrors.New(apperrors.UnsupportedEvent, "unsupported webhook event kind")
	}

	token, err := r.vault.GetSecret(ctx, user.ID, gitlabTokenSecret)
	if err != nil {
		return nil, nil, err
	}

	raw, err := r.fetcher.RawFile(ctx, string(token), projectID, specFileName, wctx.CommitSHA)
	if err != nil {
		return nil, nil, err
	}

	spec, err := parseSpecFile(raw)
	if err != nil {
		return nil, nil, err
	}
	if !r.engines.Supported(spec.Engine) {
		return nil, nil, apperrors.Newf(apperrors.UnsupportedEngine, "unknown workflow engine %q", spec.Engine)
	}
	return spec, &wctx, nil
}

// specFile mirrors the reana.yaml document shape.
type specFile struct {
	Inputs struct {
		Parameters map[string]any `yaml:"parameters"`
	} `yaml:"inputs"`
	Workflow struct {
		Type          string         `yaml:"type"`
		File          string         `yaml:"file"`
		Specification map[string]any `yaml:"specification"`
	} `yaml:"workflow"`
}

// parseSpecFile converts a fetched reana.yaml into a canonical
// specification. Content that fetched fine but does not parse is a
// malformed specification, not an upstream failure.
func parseSpecFile(raw []byte) (*models.AnalysisSpec, error) {
	var doc specFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.MalformedSpec,
			fmt.Sprintf("%s is not valid YAML", specFileName), err)
	}
	if doc.Workflow.Type == "" {
		return nil, apperrors.Newf(apperrors.MalformedSpec, "%s is missing workflow.type", specFileName)
	}
	return &models.AnalysisSpec{
		Engine:     doc.Workflow.Type,
		EntryPoint: doc.Workflow.File,
		Workflow:   doc.Workflow.Specification,
		Parameters: doc.Inputs.Parameters,
	}, nil
}
