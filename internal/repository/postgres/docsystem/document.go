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
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, title, doc_type, status, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ProjectID,
		doc.Title,
		doc.Type,
		doc.Status,
		doc.Metadata, // pgx handles map -> JSONB (nil becomes NULL)
		doc.CreatedBy,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", postgres.MapDeadline(err))
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, title, doc_type, status, metadata, created_by, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Title,
		&doc.Type,
		&doc.Status,
		&doc.Metadata, // pgx handles JSONB -> map
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", postgres.MapDeadline(err))
	}

	return &doc, nil
}

// ListByProject lists all documents in a project, newest first
func (r *PostgresDocumentRepository) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, title, doc_type, status, metadata, created_by, created_at, updated_at
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.ProjectID,
			&doc.Title,
			&doc.Type,
			&doc.Status,
			&doc.Metadata,
			&doc.CreatedBy,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	// Return empty slice instead of nil
	if documents == nil {
		documents = []models.Document{}
	}

	return documents, nil
}

// Exists reports whether a document with the given ID exists
func (r *PostgresDocumentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, r.tables.Documents)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check document exists: %w", postgres.MapDeadline(err))
	}

	return exists, nil
}
