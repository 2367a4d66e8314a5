package llm

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageTracking records token usage and estimated cost for one model call.
//
// Invariant: TotalTokens == PromptTokens + CompletionTokens. The total is
// computed server-side, never caller-supplied, to prevent drift.
// CostEstimate is nil when pricing for the model is unknown - never a guess.
type UsageTracking struct {
	ID               string           `json:"id" db:"id"`
	RequestID        string           `json:"request_id" db:"request_id"`
	Model            string           `json:"model" db:"model"`
	PromptTokens     int              `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int              `json:"total_tokens" db:"total_tokens"`
	CostEstimate     *decimal.Decimal `json:"cost_estimate,omitempty" db:"cost_estimate"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// BudgetDecision is the ledger's advisory verdict on projected spend.
// The ledger reports; the caller decides whether to block admission.
type BudgetDecision struct {
	Allowed   bool             `json:"allowed"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"` // budget left after current spend; nil when unbounded
}

// Allow is the decision for unbounded or within-budget spend.
func Allow(remaining *decimal.Decimal) BudgetDecision {
	return BudgetDecision{Allowed: true, Remaining: remaining}
}

// Deny is the decision when projected spend would exceed the budget.
func Deny(remaining decimal.Decimal) BudgetDecision {
	return BudgetDecision{Allowed: false, Remaining: &remaining}
}

// ModelUsage is the per-model slice of a usage summary.
type ModelUsage struct {
	Model            string          `json:"model"`
	Requests         int             `json:"requests"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	Cost             decimal.Decimal `json:"cost"`
}

// UsageSummary aggregates a project's recorded usage.
type UsageSummary struct {
	ProjectID        string           `json:"project_id"`
	PromptTokens     int64            `json:"prompt_tokens"`
	CompletionTokens int64            `json:"completion_tokens"`
	TotalTokens      int64            `json:"total_tokens"`
	TotalCost        decimal.Decimal  `json:"total_cost"`
	Budget           *decimal.Decimal `json:"budget,omitempty"`
	Remaining        *decimal.Decimal `json:"remaining,omitempty"`
	ByModel          []ModelUsage     `json:"by_model"`
}
