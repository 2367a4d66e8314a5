package llm

import (
	"context"

	"revisor/internal/domain/models/llm"
)

// RequestLifecycle coordinates an AI request through its state machine:
// PENDING -> PROCESSING -> {COMPLETED, FAILED, CANCELLED}. Illegal
// transitions fail with domain.ErrInvalidState; terminal states absorb.
type RequestLifecycle interface {
	// Submit creates a request in PENDING. When the request is
	// project-scoped, the budget gate is consulted; whether a Deny blocks
	// admission depends on the configured enforcement policy.
	Submit(ctx context.Context, req *SubmitRequest) (*llm.AiRequest, error)

	// GetRequest retrieves a request by ID
	GetRequest(ctx context.Context, id string) (*llm.AiRequest, error)

	// BeginProcessing transitions PENDING -> PROCESSING
	BeginProcessing(ctx context.Context, id string) error

	// RecordResponse appends a response row. Allowed only while the request
	// is PROCESSING; does not itself change the request status.
	RecordResponse(ctx context.Context, id string, req *RecordResponseRequest) (*llm.AiResponse, error)

	// Complete transitions PROCESSING -> COMPLETED. Usage finalization and
	// the status transition commit in the same transaction.
	Complete(ctx context.Context, id string) error

	// Fail transitions PROCESSING -> FAILED, recording the reason. Usage
	// finalization commits with the transition.
	Fail(ctx context.Context, id string, reason string) error

	// Cancel transitions PENDING or PROCESSING -> CANCELLED. Cancelling an
	// already-cancelled request is a no-op; cancelling a COMPLETED or
	// FAILED request fails with domain.ErrInvalidState.
	Cancel(ctx context.Context, id string) error
}

// SubmitRequest represents an AI request submission
type SubmitRequest struct {
	ProjectID *string                `json:"project_id,omitempty"`
	UserID    string                 `json:"-"` // Set by handler from auth context
	Type      string                 `json:"type"`
	Prompt    string                 `json:"prompt"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Model     string                 `json:"model,omitempty"` // defaults to the project's ai_model
}

// RecordResponseRequest represents one model output to append to a request
type RecordResponseRequest struct {
	Content      string                 `json:"content"`
	TokensUsed   int                    `json:"tokens_used"`
	Model        string                 `json:"model"`
	FinishReason *string                `json:"finish_reason,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
