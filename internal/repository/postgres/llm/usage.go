package llm

import (
	"context"
	"fmt"
	"log/slog"

	"revisor/internal/domain"
	models "revisor/internal/domain/models/llm"
	llmRepo "revisor/internal/domain/repositories/llm"

	"revisor/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresUsageRepository implements the UsageRepository interface.
// Usage rows are immutable: insert and read only. Cost columns round-trip
// as decimal strings so no floating point touches money.
type PostgresUsageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewUsageRepository creates a new usage tracking repository
func NewUsageRepository(config *postgres.RepositoryConfig) llmRepo.UsageRepository {
	return &PostgresUsageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create records one usage row
func (r *PostgresUsageRepository) Create(ctx context.Context, usage *models.UsageTracking) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, model, prompt_tokens, completion_tokens, total_tokens, cost_estimate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.UsageTracking)

	var cost *string
	if usage.CostEstimate != nil {
		s := usage.CostEstimate.String()
		cost = &s
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		usage.RequestID,
		usage.Model,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
		cost,
	).Scan(&usage.ID, &usage.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("ai request %s: %w", usage.RequestID, domain.ErrNotFound)
		}
		return fmt.Errorf("create usage row: %w", postgres.MapDeadline(err))
	}

	return nil
}

// ListByRequest lists a request's usage rows in creation order
func (r *PostgresUsageRepository) ListByRequest(ctx context.Context, requestID string) ([]models.UsageTracking, error) {
	query := fmt.Sprintf(`
		SELECT id, request_id, model, prompt_tokens, completion_tokens, total_tokens, cost_estimate::text, created_at
		FROM %s
		WHERE request_id = $1
		ORDER BY created_at ASC
	`, r.tables.UsageTracking)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list usage rows: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var usages []models.UsageTracking
	for rows.Next() {
		var u models.UsageTracking
		var cost *string
		err := rows.Scan(
			&u.ID,
			&u.RequestID,
			&u.Model,
			&u.PromptTokens,
			&u.CompletionTokens,
			&u.TotalTokens,
			&cost,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		if cost != nil {
			c, err := decimal.NewFromString(*cost)
			if err != nil {
				return nil, fmt.Errorf("parse usage cost: %w", err)
			}
			u.CostEstimate = &c
		}
		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage rows: %w", err)
	}

	// Return empty slice instead of nil
	if usages == nil {
		usages = []models.UsageTracking{}
	}

	return usages, nil
}

// SumCostByProject sums cost_estimate over all usage rows whose owning
// request belongs to the project. NULL costs (unknown pricing) contribute
// nothing.
func (r *PostgresUsageRepository) SumCostByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(u.cost_estimate), 0)::text
		FROM %s u
		JOIN %s r ON r.id = u.request_id
		WHERE r.project_id = $1
	`, r.tables.UsageTracking, r.tables.AiRequests)

	var sum string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum project cost: %w", postgres.MapDeadline(err))
	}

	total, err := decimal.NewFromString(sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse project cost sum: %w", err)
	}

	return total, nil
}

// SummarizeByProject aggregates a project's usage per model
func (r *PostgresUsageRepository) SummarizeByProject(ctx context.Context, projectID string) ([]models.ModelUsage, error) {
	query := fmt.Sprintf(`
		SELECT u.model,
		       COUNT(DISTINCT u.request_id),
		       COALESCE(SUM(u.prompt_tokens), 0),
		       COALESCE(SUM(u.completion_tokens), 0),
		       COALESCE(SUM(u.total_tokens), 0),
		       COALESCE(SUM(u.cost_estimate), 0)::text
		FROM %s u
		JOIN %s r ON r.id = u.request_id
		WHERE r.project_id = $1
		GROUP BY u.model
		ORDER BY u.model ASC
	`, r.tables.UsageTracking, r.tables.AiRequests)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("summarize project usage: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var summaries []models.ModelUsage
	for rows.Next() {
		var m models.ModelUsage
		var cost string
		err := rows.Scan(
			&m.Model,
			&m.Requests,
			&m.PromptTokens,
			&m.CompletionTokens,
			&m.TotalTokens,
			&cost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		c, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("parse model cost: %w", err)
		}
		m.Cost = c
		summaries = append(summaries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}

	if summaries == nil {
		summaries = []models.ModelUsage{}
	}

	return summaries, nil
}
