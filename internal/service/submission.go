package service

import (
	"context"

	"github.com/reanahub/reana-relay/internal/engine"
	"github.com/reanahub/reana-relay/internal/models"
)

// Gateway is the single call boundary to the workflow controller.
type Gateway interface {
	// CreateWorkflow submits one payload, exactly once.
	CreateWorkflow(ctx context.Context, req *models.DispatchRequest, organization, userID string) (*models.DispatchResult, error)
	// ListWorkflows lists the caller's workflows.
	ListWorkflows(ctx context.Context, organization, userID string) ([]models.WorkflowSummary, error)
}

// SubmissionService runs the resolve → adapt → dispatch pipeline. Payload
// adaptation always completes before any controller call is attempted, so
// invalid input never causes partial work downstream.
type SubmissionService struct {
	resolver *SpecResolver
	engines  *engine.Registry
	gateway  Gateway
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(resolver *SpecResolver, engines *engine.Registry, gateway Gateway) *SubmissionService {
	return &SubmissionService{resolver: resolver, engines: engines, gateway: gateway}
}

// SubmitUpload resolves an uploaded specification and dispatches it for
// the authenticated user.
func (s *SubmissionService) SubmitUpload(ctx context.Context, user *models.User, engineName string, payload []byte, organization string) (*models.DispatchResult, error) {
	spec, err := s.resolver.FromUpload(engineName, payload)
	if err != nil {
		return nil, err
	}
	req, err := s.engines.Adapt(spec)
	if err != nil {
		return nil, err
	}
	return s.gateway.CreateWorkflow(ctx, req, organization, user.ID)
}

// SubmitWebhook resolves a webhook-triggered specification and dispatches
// it, returning the controller result together with the source-control
// provenance.
func (s *SubmissionService) SubmitWebhook(ctx context.Context, user *models.User, event any, organization string) (*models.DispatchResult, *models.WebhookContext, error) {
	spec, wctx, err := s.resolver.FromWebhook(ctx, user, event)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.engines.Adapt(spec)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.gateway.CreateWorkflow(ctx, req, organization, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return result, wctx, nil
}

// List passes the caller's workflow listing through from the controller.
func (s *SubmissionService) List(ctx context.Context, user *models.User, organization string) ([]models.WorkflowSummary, error) {
	return s.gateway.ListWorkflows(ctx, organization, user.ID)
}
