package llm

import (
	"context"
	"time"

	"revisor/internal/domain/models/llm"

	"github.com/shopspring/decimal"
)

// RequestRepository defines data access operations for AI requests
type RequestRepository interface {
	// Create creates a new request in its initial status
	Create(ctx context.Context, req *llm.AiRequest) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*llm.AiRequest, error)

	// UpdateStatus performs a guarded status transition: the row is updated
	// only if its current status is one of the expected 'from' statuses.
	// When the guard does not match it returns domain.ErrInvalidState with
	// the request's actual status.
	UpdateStatus(ctx context.Context, id string, from []llm.RequestStatus, to llm.RequestStatus, failureReason *string) error

	// Finalize stamps aggregated usage totals onto the request row. Called
	// in the same transaction as the terminal status transition.
	Finalize(ctx context.Context, id string, totalTokens int64, totalCost decimal.Decimal, at time.Time) error
}

// ResponseRepository defines data access operations for AI responses.
// Response rows are immutable once written.
type ResponseRepository interface {
	// Create appends a response row to a request
	Create(ctx context.Context, resp *llm.AiResponse) error

	// ListByRequest lists a request's responses in creation order
	ListByRequest(ctx context.Context, requestID string) ([]llm.AiResponse, error)
}
