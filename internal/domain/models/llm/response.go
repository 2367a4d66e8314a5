package llm

import (
	"time"
)

// AiResponse is one model output for an AI request. A request may receive
// multiple responses (streaming chunks, multi-candidate generation). Rows may
// be created only while the owning request is PROCESSING and are immutable
// once written.
type AiResponse struct {
	ID           string                 `json:"id" db:"id"`
	RequestID    string                 `json:"request_id" db:"request_id"`
	Content      string                 `json:"content" db:"content"`
	TokensUsed   int                    `json:"tokens_used" db:"tokens_used"`
	Model        string                 `json:"model" db:"model"`
	FinishReason *string                `json:"finish_reason,omitempty" db:"finish_reason"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
