package docsystem

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project scopes documents and AI spend. Only the budget-relevant slice is
// modeled here: AIBudget is a nullable spending cap compared against the
// cumulative cost of the project's usage rows before new spend is admitted.
type Project struct {
	ID        string           `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	AIBudget  *decimal.Decimal `json:"ai_budget,omitempty" db:"ai_budget"` // nil = unbounded
	AIModel   string           `json:"ai_model" db:"ai_model"`             // default model for AI requests
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}
