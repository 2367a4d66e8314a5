package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// ProjectService handles project business logic
type ProjectService interface {
	// CreateProject creates a new project
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*docsystem.Project, error)

	// GetProject retrieves a project by ID
	GetProject(ctx context.Context, projectID string) (*docsystem.Project, error)
}

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	Name     string  `json:"name"`
	AIBudget *string `json:"ai_budget,omitempty"` // decimal string; null = unbounded
	AIModel  string  `json:"ai_model,omitempty"`
}
