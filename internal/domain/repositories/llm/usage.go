package llm

import (
	"context"

	"revisor/internal/domain/models/llm"

	"github.com/shopspring/decimal"
)

// UsageRepository defines data access operations for the usage ledger.
// Usage rows are immutable once written.
type UsageRepository interface {
	// Create records one usage row
	Create(ctx context.Context, usage *llm.UsageTracking) error

	// ListByRequest lists a request's usage rows in creation order
	ListByRequest(ctx context.Context, requestID string) ([]llm.UsageTracking, error)

	// SumCostByProject sums cost_estimate over all usage rows whose owning
	// request belongs to the project. Rows with unknown (NULL) cost
	// contribute nothing to the sum.
	SumCostByProject(ctx context.Context, projectID string) (decimal.Decimal, error)

	// SummarizeByProject aggregates a project's usage per model
	SummarizeByProject(ctx context.Context, projectID string) ([]llm.ModelUsage, error)
}
