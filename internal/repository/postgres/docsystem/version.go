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

// PostgresVersionRepository implements the VersionRepository interface.
// Version rows are append-only: no update or delete statements exist here.
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new document version repository
func NewVersionRepository(config *postgres.RepositoryConfig) docsysRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new version row. The (document_id, version) unique
// constraint is the sole mutual-exclusion mechanism for version allocation;
// a duplicate means a concurrent writer won the race, surfaced as
// domain.ErrVersionConflict so the service layer can retry the whole
// read-compute-write cycle.
func (r *PostgresVersionRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version, content, diff_from_previous, commit_hash, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		v.DocumentID,
		v.Version,
		v.Content,
		v.DiffFromPrevious,
		v.CommitHash,
		v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("document %s version %d: %w", v.DocumentID, v.Version, domain.ErrVersionConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document version: %w", postgres.MapDeadline(err))
	}

	return nil
}

// MaxVersion returns the current maximum version for a document, 0 if none
func (r *PostgresVersionRepository) MaxVersion(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version), 0)
		FROM %s
		WHERE document_id = $1
	`, r.tables.DocumentVersions)

	var max int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, documentID).Scan(&max); err != nil {
		return 0, fmt.Errorf("get max version: %w", postgres.MapDeadline(err))
	}

	return max, nil
}

// GetByVersion retrieves one version of a document
func (r *PostgresVersionRepository) GetByVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, content, diff_from_previous, commit_hash, created_by, created_at
		FROM %s
		WHERE document_id = $1 AND version = $2
	`, r.tables.DocumentVersions)

	var v models.DocumentVersion
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID, version).Scan(
		&v.ID,
		&v.DocumentID,
		&v.Version,
		&v.Content,
		&v.DiffFromPrevious,
		&v.CommitHash,
		&v.CreatedBy,
		&v.CreatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s version %d: %w", documentID, version, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document version: %w", postgres.MapDeadline(err))
	}

	return &v, nil
}

// ListByDocument lists a document's versions in ascending order, metadata only
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, commit_hash, created_by, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version ASC
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.Version,
			&v.CommitHash,
			&v.CreatedBy,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	// Return empty slice instead of nil
	if versions == nil {
		versions = []models.DocumentVersion{}
	}

	return versions, nil
}

// ListWithContent lists a document's versions in ascending order with
// content and diffs included
func (r *PostgresVersionRepository) ListWithContent(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, content, diff_from_previous, commit_hash, created_by, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version ASC
	`, r.tables.DocumentVersions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions with content: %w", postgres.MapDeadline(err))
	}
	defer rows.Close()

	var versions []models.DocumentVersion
	for rows.Next() {
		var v models.DocumentVersion
		err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.Version,
			&v.Content,
			&v.DiffFromPrevious,
			&v.CommitHash,
			&v.CreatedBy,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	if versions == nil {
		versions = []models.DocumentVersion{}
	}

	return versions, nil
}
