package llm

import (
	"context"

	"revisor/internal/domain/models/llm"

	"github.com/shopspring/decimal"
)

// UsageLedger records token/cost usage per request and gates new spend
// against project budgets. The ledger is side-effect-free beyond its own
// table: CheckBudget reports a decision, enforcement belongs to the caller.
type UsageLedger interface {
	// RecordUsage validates and persists one usage row. The total is always
	// computed as prompt + completion; a missing cost estimate is derived
	// from the pricing table (unknown model leaves it NULL).
	RecordUsage(ctx context.Context, req *RecordUsageRequest) (*llm.UsageTracking, error)

	// CheckBudget compares the project's cumulative spend plus the projected
	// cost against its ai_budget. A NULL budget always allows.
	CheckBudget(ctx context.Context, projectID string, projected decimal.Decimal) (llm.BudgetDecision, error)

	// FinalizeRequest aggregates a request's usage rows and stamps the
	// totals onto the request row. Runs inside the caller's transaction so
	// finalization and the terminal status transition commit together.
	FinalizeRequest(ctx context.Context, requestID string) error

	// GetUsageSummary aggregates a project's usage, overall and per model
	GetUsageSummary(ctx context.Context, projectID string) (*llm.UsageSummary, error)
}

// RecordUsageRequest represents one model call's token counts
type RecordUsageRequest struct {
	RequestID        string           `json:"-"` // from URL path
	Model            string           `json:"model"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	CostEstimate     *decimal.Decimal `json:"cost_estimate,omitempty"` // derived from pricing when omitted
}
