package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*docsystem.Document, error)

	// ListByProject lists all documents in a project, newest first
	ListByProject(ctx context.Context, projectID string) ([]docsystem.Document, error)

	// Exists reports whether a document with the given ID exists
	Exists(ctx context.Context, id string) (bool, error)
}
