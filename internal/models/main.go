// Package models defines the core data structures for users, secrets and
// analysis submissions.
package models

// User represents a registered platform user with an API access token.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string
	// Email is the address the user registered with. Unique.
	Email string
	// AccessToken is the bearer credential for API calls. Unique and
	// generated from a cryptographically secure random source.
	AccessToken string
}

// SecretKind defines the set of valid secret kinds.
type SecretKind string

const (
	// SecretEnv is a secret exposed to workflows as an environment variable.
	SecretEnv SecretKind = "env"
	// SecretFile is a secret mounted into workflows as a file.
	SecretFile SecretKind = "file"
)

// Secret holds a single named secret value owned by one user.
type Secret struct {
	// Name identifies the secret within its owner's store.
	Name string
	// Value is the raw secret payload.
	Value []byte
	// Kind indicates how the secret is exposed to workflows.
	Kind SecretKind
}

// AnalysisSpec is the canonical analysis specification produced by the
// resolver, independent of where it came from.
type AnalysisSpec struct {
	// Engine names the workflow engine the analysis targets.
	Engine string
	// EntryPoint is the engine-specific entry document or step.
	EntryPoint string
	// Workflow is the structured workflow definition.
	Workflow map[string]any
	// Parallelism is the desired number of parallel tasks.
	Parallelism int
	// Parameters holds preset workflow parameters.
	Parameters map[string]any
}

// WebhookContext records the source-control provenance of a
// webhook-triggered analysis.
type WebhookContext struct {
	// RepositoryPath is the project path with namespace, e.g. "group/repo".
	RepositoryPath string
	// Branch is the branch the event refers to.
	Branch string
	// CommitSHA is the commit the specification was resolved at.
	CommitSHA string
}

// DispatchRequest is the engine-specific wire payload submitted to the
// workflow controller.
type DispatchRequest struct {
	// Engine names the target workflow engine.
	Engine string
	// Payload is the payload body, nested under the engine-specific key.
	Payload map[string]any
}

// DispatchResult is the workflow controller's reply to a submission.
type DispatchResult struct {
	// Message is the human-readable controller message.
	Message string `json:"message"`
	// WorkflowID identifies the instantiated workflow.
	WorkflowID string `json:"workflow_id"`
}

// WorkflowSummary is one entry of the controller's workflow listing.
type WorkflowSummary struct {
	ID           string `json:"id"`
	Organization string `json:"organization"`
	Status       string `json:"status"`
	User         string `json:"user"`
}
