package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"revisor/internal/domain"
	models "revisor/internal/domain/models/llm"
	llmRepo "revisor/internal/domain/repositories/llm"

	"revisor/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRequestRepository implements the RequestRepository interface
type PostgresRequestRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRequestRepository creates a new AI request repository
func NewRequestRepository(config *postgres.RepositoryConfig) llmRepo.RequestRepository {
	return &PostgresRequestRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new request in its initial status
func (r *PostgresRequestRepository) Create(ctx context.Context, req *models.AiRequest) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, request_type, status, prompt, context, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.AiRequests)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		req.ProjectID,
		req.UserID,
		req.Type,
		req.Status,
		req.Prompt,
		req.Context, // pgx handles map -> JSONB (nil becomes NULL)
		req.Model,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", derefOr(req.ProjectID, "?"), domain.ErrNotFound)
		}
		return fmt.Errorf("create ai request: %w", postgres.MapDeadline(err))
	}

	return nil
}

// GetByID retrieves a request by ID
func (r *PostgresRequestRepository) GetByID(ctx context.Context, id string) (*models.AiRequest, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, user_id, request_type, status, prompt, context, model,
		       failure_reason, total_tokens, total_cost::text, finalized_at, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.AiRequests)

	var req models.AiRequest
	var totalCost *string
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.ProjectID,
		&req.UserID,
		&req.Type,
		&req.Status,
		&req.Prompt,
		&req.Context, // pgx handles JSONB -> map
		&req.Model,
		&req.FailureReason,
		&req.TotalTokens,
		&totalCost,
		&req.FinalizedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("ai request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get ai request: %w", postgres.MapDeadline(err))
	}

	if totalCost != nil {
		c, err := decimal.NewFromString(*totalCost)
		if err != nil {
			return nil, fmt.Errorf("parse request total cost: %w", err)
		}
		req.TotalCost = &c
	}

	return &req, nil
}

// UpdateStatus performs a guarded compare-and-set on the request status.
// The guard in the WHERE clause is what makes terminal states absorbing even
// with concurrent writers: the row only changes when the current status is
// one of the expected 'from' statuses.
func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus, failureReason *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, failure_reason = COALESCE($2, failure_reason), updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`, r.tables.AiRequests)

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, to, failureReason, id, fromStrs)
	if err != nil {
		return fmt.Errorf("update request status: %w", postgres.MapDeadline(err))
	}

	if result.RowsAffected() == 0 {
		// Guard did not match: distinguish a missing row from a wrong state
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &domain.InvalidStateError{
			RequestID: id,
			Expected:  joinStatuses(from),
			Actual:    string(current.Status),
		}
	}

	return nil
}

// Finalize stamps aggregated usage totals onto the request row
func (r *PostgresRequestRepository) Finalize(ctx context.Context, id string, totalTokens int64, totalCost decimal.Decimal, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET total_tokens = $1, total_cost = $2, finalized_at = $3, updated_at = NOW()
		WHERE id = $4
	`, r.tables.AiRequests)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, totalTokens, totalCost.String(), at, id)
	if err != nil {
		return fmt.Errorf("finalize ai request: %w", postgres.MapDeadline(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ai request %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func joinStatuses(statuses []models.RequestStatus) string {
	out := ""
	for i, s := range statuses {
		if i > 0 {
			out += "|"
		}
		out += string(s)
	}
	return out
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
