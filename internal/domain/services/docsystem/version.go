package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// VersionStore admits new versions for documents and serves version history.
//
// Version numbers for a single document are strictly increasing and gap-free
// as observed by any reader once a version's transaction commits. The
// (document_id, version) uniqueness constraint is the sole mutual-exclusion
// mechanism; concurrency control is optimistic with a bounded retry.
type VersionStore interface {
	// CreateVersion admits a new version: reads the current maximum version,
	// computes the diff against the previous content, and persists the row.
	// Retries internally on allocation races; after the retry budget is
	// exhausted it fails with domain.ErrVersionConflict.
	CreateVersion(ctx context.Context, req *CreateVersionRequest) (*docsystem.DocumentVersion, error)

	// GetVersion retrieves one version of a document
	GetVersion(ctx context.Context, documentID string, version int) (*docsystem.DocumentVersion, error)

	// ListVersions lists a document's version history (metadata only)
	ListVersions(ctx context.Context, documentID string) ([]docsystem.DocumentVersion, error)

	// VerifyChain replays each stored diff against the prior version's
	// content and reports the first version whose patch no longer applies
	VerifyChain(ctx context.Context, documentID string) (*docsystem.VersionChainReport, error)
}

// CreateVersionRequest represents a content submission for a document
type CreateVersionRequest struct {
	DocumentID string  `json:"-"` // from URL path
	AuthorID   string  `json:"-"` // from auth context
	Content    string  `json:"content"`
	CommitHash *string `json:"commit_hash,omitempty"`
}
