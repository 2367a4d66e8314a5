package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument creates a new document (without any version; versions
	// are admitted separately through the VersionStore)
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument retrieves a document by ID
	GetDocument(ctx context.Context, documentID string) (*docsystem.Document, error)

	// ListDocuments lists a project's documents
	ListDocuments(ctx context.Context, projectID string) ([]docsystem.Document, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	ProjectID string                 `json:"project_id"`
	UserID    string                 `json:"-"` // Set by handler from auth context, not from request body
	Title     string                 `json:"title"`
	Type      string                 `json:"type"`
	Status    string                 `json:"status,omitempty"` // defaults to DRAFT
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
