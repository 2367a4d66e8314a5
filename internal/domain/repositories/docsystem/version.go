package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// VersionRepository defines data access operations for document versions.
// The store is append-only: there are deliberately no update or delete
// operations on version rows.
type VersionRepository interface {
	// Create inserts a new version row under the (document_id, version)
	// uniqueness constraint. A concurrent writer winning the race for the
	// same version number surfaces as domain.ErrVersionConflict.
	Create(ctx context.Context, v *docsystem.DocumentVersion) error

	// MaxVersion returns the current maximum version for a document,
	// 0 if the document has no versions yet.
	MaxVersion(ctx context.Context, documentID string) (int, error)

	// GetByVersion retrieves one version of a document
	GetByVersion(ctx context.Context, documentID string, version int) (*docsystem.DocumentVersion, error)

	// ListByDocument lists a document's versions in ascending version order,
	// without content bodies (metadata only)
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)

	// ListWithContent lists a document's versions in ascending version order,
	// including content and diffs (used for chain verification)
	ListWithContent(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)
}
