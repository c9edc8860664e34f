// Package dispatch is the single call boundary to the downstream workflow
// controller. A submission is attempted exactly once per call; retrying is
// the caller's decision, never this package's.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
	"go.uber.org/zap"
)

// Client submits workflows to, and lists workflows from, the workflow
// controller's HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

// NewClient returns a Client for the controller at baseURL.
func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

// CreateWorkflow submits one adapted payload for the given organization
// and user. No retry happens on any failure: a transport or application
// error surfaces as UpstreamDispatch with the controller's message kept
// verbatim, and the caller decides whether to resubmit.
func (c *Client) CreateWorkflow(ctx context.Context, req *models.DispatchRequest, organization, userID string) (*models.DispatchResult, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode dispatch payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/workflows?%s", c.baseURL, url.Values{
		"engine":       {req.Engine},
		"organization": {organization},
		"user":         {userID},
	}.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build dispatch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamDispatch, "workflow controller unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.UpstreamDispatch, upstreamMessage(resp))
	}

	var result models.DispatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamDispatch, "decode controller response", err)
	}
	c.log.Info("workflow dispatched",
		zap.String("engine", req.Engine),
		zap.String("workflow_id", result.WorkflowID),
		zap.String("user", userID),
	)
	return &result, nil
}

// ListWorkflows returns the controller's workflow summaries for the given
// organization and user. Failures surface as UpstreamQuery.
func (c *Client) ListWorkflows(ctx context.Context, organization, userID string) ([]models.WorkflowSummary, error) {
	endpoint := fmt.Sprintf("%s/api/workflows?%s", c.baseURL, url.Values{
		"organization": {organization},
		"user":         {userID},
	}.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamQuery, "workflow controller unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.UpstreamQuery, upstreamMessage(resp))
	}

	var workflows []models.WorkflowSummary
	if err := json.NewDecoder(resp.Body).Decode(&workflows); err != nil {
		return nil, apperrors.Wrap(apperrors.UpstreamQuery, "decode controller response", err)
	}
	return workflows, nil
}

// upstreamMessage extracts the controller's error message from a
// non-success response, falling back to the raw body or status line.
func upstreamMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return resp.Status
}
