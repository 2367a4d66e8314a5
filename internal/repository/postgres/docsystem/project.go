package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"revisor/internal/domain"
	models "revisor/internal/domain/models/docsystem"
	docsysRepo "revisor/internal/domain/repositories/docsystem"

	"revisor/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *postgres.RepositoryConfig) docsysRepo.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, ai_budget, ai_model)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	// numeric columns round-trip as decimal strings to stay off floating point
	var budget *string
	if project.AIBudget != nil {
		s := project.AIBudget.String()
		budget = &s
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.Name,
		budget,
		project.AIModel,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create project: %w", postgres.MapDeadline(err))
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, ai_budget::text, ai_model, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Projects)

	var project models.Project
	var budget *string
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&budget,
		&project.AIModel,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", postgres.MapDeadline(err))
	}

	if budget != nil {
		b, err := decimal.NewFromString(*budget)
		if err != nil {
			return nil, fmt.Errorf("parse project budget: %w", err)
		}
		project.AIBudget = &b
	}

	return &project, nil
}
