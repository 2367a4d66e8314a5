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
)

// PostgresResponseRepository implements the ResponseRepository interface.
// Response rows are immutable: insert and read only.
type PostgresResponseRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewResponseRepository creates a new AI response repository
func NewResponseRepository(config *postgres.RepositoryConfig) llmRepo.ResponseRepository {
	return &PostgresResponseRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a response row to a request
func (r *PostgresResponseRepository) Create(ctx context.Context, resp *models.AiResponse) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, content, tokens_used, model, finish_reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.AiResponses)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		resp.RequestID,
		resp.Content,
		resp.TokensUsed,
		resp.Model,
		resp.FinishReason,
		resp.Metadata, // pgx handles map -> JSONB (nil becomes NULL)
	).Scan(&resp.ID, &resp.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("ai request %s: %w", resp.RequestID, domain.ErrNotFound)
		}
		return fmt.Errorf("create ai response: %w", postgres.MapDeadline(err))
	}

	return nil
}

// ListByRequest lists a request's responses in creation order
func (r *PostgresResponseRepository) ListByRequest(ctx context.Context, requestID string) ([]models.AiResponse, error) {
	query := fmt.Sprintf(`
		SELECT id, request_id, content, tokens_used, model, finish_reason, metadata, created_at
		FROM %s
		WHERE request_id = $1
		ORDER BY created_at ASC
	`, r.tables.AiResponses)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list ai responses: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var responses []models.AiResponse
	for rows.Next() {
		var resp models.AiResponse
		err := rows.Scan(
			&resp.ID,
			&resp.RequestID,
			&resp.Content,
			&resp.TokensUsed,
			&resp.Model,
			&resp.FinishReason,
			&resp.Metadata,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ai response: %w", err)
		}
		responses = append(responses, resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ai responses: %w", err)
	}

	// Return empty slice instead of nil
	if responses == nil {
		responses = []models.AiResponse{}
	}

	return responses, nil
}
