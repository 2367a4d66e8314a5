package docsystem

import (
	"time"
)

// DocumentStatus is the publication status of a document.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusReview    DocumentStatus = "REVIEW"
	DocumentStatusPublished DocumentStatus = "PUBLISHED"
	DocumentStatusArchived  DocumentStatus = "ARCHIVED"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusReview, DocumentStatusPublished, DocumentStatusArchived:
		return true
	}
	return false
}

// Document is the parent entity of an ordered, append-only collection of
// versions. The current body of a document is the content of its highest
// committed version.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	ProjectID string                 `json:"project_id" db:"project_id"`
	Title     string                 `json:"title" db:"title"`
	Type      string                 `json:"type" db:"doc_type"`
	Status    DocumentStatus         `json:"status" db:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"` // opaque JSON bag, unvalidated here
	CreatedBy string                 `json:"created_by" db:"created_by"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}
