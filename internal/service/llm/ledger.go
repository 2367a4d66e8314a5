package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"revisor/internal/domain"
	models "revisor/internal/domain/models/llm"
	docsysRepo "revisor/internal/domain/repositories/docsystem"
	llmRepo "revisor/internal/domain/repositories/llm"
	llmSvc "revisor/internal/domain/services/llm"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// usageLedger implements the UsageLedger interface. It writes only its own
// table (plus the finalized aggregates on the request row when the caller
// runs FinalizeRequest inside a transaction); budget enforcement is the
// caller's decision.
type usageLedger struct {
	usageRepo   llmRepo.UsageRepository
	requestRepo llmRepo.RequestRepository
	projectRepo docsysRepo.ProjectRepository
	pricing     *PricingTable
	logger      *slog.Logger
}

// NewUsageLedger creates a new usage ledger
func NewUsageLedger(
	usageRepo llmRepo.UsageRepository,
	requestRepo llmRepo.RequestRepository,
	projectRepo docsysRepo.ProjectRepository,
	pricing *PricingTable,
	logger *slog.Logger,
) llmSvc.UsageLedger {
	return &usageLedger{
		usageRepo:   usageRepo,
		requestRepo: requestRepo,
		projectRepo: projectRepo,
		pricing:     pricing,
		logger:      logger,
	}
}

// RecordUsage validates and persists one usage row
func (l *usageLedger) RecordUsage(ctx context.Context, req *llmSvc.RecordUsageRequest) (*models.UsageTracking, error) {
	if err := l.validateRecordRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	cost := req.CostEstimate
	if cost == nil {
		// Derive from the rate table; unknown model leaves cost NULL.
		if derived, ok := l.pricing.Estimate(req.Model, req.PromptTokens, req.CompletionTokens); ok {
			cost = &derived
		} else {
			l.logger.Warn("no pricing for model, recording unknown cost", "model", req.Model)
		}
	} else if cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost_estimate must not be negative", domain.ErrValidation)
	}

	usage := &models.UsageTracking{
		RequestID:        req.RequestID,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		// Computed here, never caller-supplied, so the invariant
		// total == prompt + completion cannot drift
		TotalTokens:  req.PromptTokens + req.CompletionTokens,
		CostEstimate: cost,
	}

	if err := l.usageRepo.Create(ctx, usage); err != nil {
		return nil, err
	}

	return usage, nil
}

// CheckBudget compares cumulative project spend plus projected cost against
// the project's ai_budget. Remaining is reported relative to current spend.
func (l *usageLedger) CheckBudget(ctx context.Context, projectID string, projected decimal.Decimal) (models.BudgetDecision, error) {
	project, err := l.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return models.BudgetDecision{}, err
	}

	// NULL budget = unbounded
	if project.AIBudget == nil {
		return models.Allow(nil), nil
	}

	spent, err := l.usageRepo.SumCostByProject(ctx, projectID)
	if err != nil {
		return models.BudgetDecision{}, err
	}

	remaining := project.AIBudget.Sub(spent)
	if spent.Add(projected).GreaterThan(*project.AIBudget) {
		return models.Deny(remaining), nil
	}

	return models.Allow(&remaining), nil
}

// FinalizeRequest aggregates a request's usage rows and stamps the totals
// onto the request row. Intended to run inside the caller's transaction.
func (l *usageLedger) FinalizeRequest(ctx context.Context, requestID string) error {
	rows, err := l.usageRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}

	var totalTokens int64
	totalCost := decimal.Zero
	for _, u := range rows {
		totalTokens += int64(u.TotalTokens)
		if u.CostEstimate != nil {
			totalCost = totalCost.Add(*u.CostEstimate)
		}
	}

	return l.requestRepo.Finalize(ctx, requestID, totalTokens, totalCost, time.Now().UTC())
}

// GetUsageSummary aggregates a project's usage, overall and per model
func (l *usageLedger) GetUsageSummary(ctx context.Context, projectID string) (*models.UsageSummary, error) {
	project, err := l.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	byModel, err := l.usageRepo.SummarizeByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &models.UsageSummary{
		ProjectID: projectID,
		TotalCost: decimal.Zero,
		Budget:    project.AIBudget,
		ByModel:   byModel,
	}

	for _, m := range byModel {
		summary.PromptTokens += m.PromptTokens
		summary.CompletionTokens += m.CompletionTokens
		summary.TotalTokens += m.TotalTokens
		summary.TotalCost = summary.TotalCost.Add(m.Cost)
	}

	if project.AIBudget != nil {
		remaining := project.AIBudget.Sub(summary.TotalCost)
		summary.Remaining = &remaining
	}

	return summary, nil
}

// validateRecordRequest validates a record usage request
func (l *usageLedger) validateRecordRequest(req *llmSvc.RecordUsageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.RequestID, validation.Required),
		validation.Field(&req.Model, validation.Required),
		validation.Field(&req.PromptTokens, validation.Min(0)),
		validation.Field(&req.CompletionTokens, validation.Min(0)),
	)
}
