package llm

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestType categorizes what an AI request is for.
type RequestType string

const (
	RequestTypeDocumentation RequestType = "DOCUMENTATION"
	RequestTypeCodeReview    RequestType = "CODE_REVIEW"
	RequestTypePlanning      RequestType = "PLANNING"
	RequestTypeTaskAnalysis  RequestType = "TASK_ANALYSIS"
	RequestTypeGeneral       RequestType = "GENERAL"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeDocumentation, RequestTypeCodeReview, RequestTypePlanning,
		RequestTypeTaskAnalysis, RequestTypeGeneral:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of an AI request.
//
// State machine: PENDING -> PROCESSING -> {COMPLETED, FAILED, CANCELLED}.
// Terminal states absorb; no transition leaves them.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusProcessing RequestStatus = "PROCESSING"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusFailed     RequestStatus = "FAILED"
	StatusCancelled  RequestStatus = "CANCELLED"
)

// Terminal reports whether s permits no further transitions.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	default:
		return false
	}
}

// AiRequest is one request to an AI model. It owns zero-or-more AiResponse
// rows and zero-or-more UsageTracking rows. ProjectID is optional - some
// requests are not project-scoped.
type AiRequest struct {
	ID            string                 `json:"id" db:"id"`
	ProjectID     *string                `json:"project_id,omitempty" db:"project_id"`
	UserID        string                 `json:"user_id" db:"user_id"`
	Type          RequestType            `json:"type" db:"request_type"`
	Status        RequestStatus          `json:"status" db:"status"`
	Prompt        string                 `json:"prompt" db:"prompt"`
	Context       map[string]interface{} `json:"context,omitempty" db:"context"` // opaque JSON bag, unvalidated here
	Model         string                 `json:"model" db:"model"`
	FailureReason *string                `json:"failure_reason,omitempty" db:"failure_reason"`

	// Finalized aggregates, stamped in the same transaction as the terminal
	// transition by Complete/Fail.
	TotalTokens *int             `json:"total_tokens,omitempty" db:"total_tokens"`
	TotalCost   *decimal.Decimal `json:"total_cost,omitempty" db:"total_cost"`
	FinalizedAt *time.Time       `json:"finalized_at,omitempty" db:"finalized_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
