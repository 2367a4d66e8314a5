package docsystem

import (
	"time"
)

// DocumentVersion is one immutable snapshot of a document body.
//
// Invariants:
//   - (document_id, version) is unique
//   - version numbers for a document form a gap-free sequence starting at 1
//   - DiffFromPrevious is nil iff Version == 1
//
// Rows are append-only: corrections are modeled as new versions, never as
// updates to historical rows.
type DocumentVersion struct {
	ID               string    `json:"id" db:"id"`
	DocumentID       string    `json:"document_id" db:"document_id"`
	Version          int       `json:"version" db:"version"`
	Content          string    `json:"content" db:"content"` // full body, not a patch
	DiffFromPrevious *string   `json:"diff_from_previous,omitempty" db:"diff_from_previous"`
	CommitHash       *string   `json:"commit_hash,omitempty" db:"commit_hash"` // link to an external VCS commit
	CreatedBy        string    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// VersionChainReport is the result of replaying a document's stored diffs
// against each prior version's content. A healthy chain has no broken entry.
type VersionChainReport struct {
	DocumentID    string `json:"document_id"`
	Versions      int    `json:"versions"`
	Intact        bool   `json:"intact"`
	BrokenVersion int    `json:"broken_version,omitempty"` // first version whose diff no longer applies
	Detail        string `json:"detail,omitempty"`
}
