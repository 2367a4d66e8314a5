package config

import "time"

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxProjectNameLength = 255

	// MaxDocumentTitleLength is the maximum length for document titles.
	// Same budget as project names.
	MaxDocumentTitleLength = 255

	// MaxPromptLength caps AI request prompts. Large prompts belong in
	// document content referenced via the request context, not inline.
	MaxPromptLength = 100_000

	// MaxVersionRetries bounds how many times a version allocation is
	// retried after losing the (document_id, version) uniqueness race.
	MaxVersionRetries = 5

	// VersionRetryInitialInterval is the starting backoff delay between
	// version allocation attempts; subsequent delays grow exponentially.
	VersionRetryInitialInterval = 25 * time.Millisecond

	// RequestTimeout is the default deadline applied to each operation's
	// persistence work when the caller supplies none.
	RequestTimeout = 30 * time.Second

	// MaxRequestBodyBytes caps HTTP request bodies.
	MaxRequestBodyBytes = 10 << 20
)
