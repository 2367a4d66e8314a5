package docsystem

import (
	"context"

	"revisor/internal/domain/models/docsystem"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *docsystem.Project) error

	// GetByID retrieves a project by ID
	GetByID(ctx context.Context, id string) (*docsystem.Project, error)
}
