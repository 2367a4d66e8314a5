package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"revisor/internal/config"
	"revisor/internal/domain"
	models "revisor/internal/domain/models/docsystem"
	docsysRepo "revisor/internal/domain/repositories/docsystem"
	docsysSvc "revisor/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo  docsysRepo.ProjectRepository
	defaultModel string
	logger       *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo docsysRepo.ProjectRepository,
	defaultModel string,
	logger *slog.Logger,
) docsysSvc.ProjectService {
	return &projectService{
		projectRepo:  projectRepo,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// CreateProject creates a new project
func (s *projectService) CreateProject(ctx context.Context, req *docsysSvc.CreateProjectRequest) (*models.Project, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var budget *decimal.Decimal
	if req.AIBudget != nil {
		parsed, err := decimal.NewFromString(*req.AIBudget)
		if err != nil {
			return nil, fmt.Errorf("%w: ai_budget must be a decimal string", domain.ErrValidation)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("%w: ai_budget must not be negative", domain.ErrValidation)
		}
		budget = &parsed
	}

	model := req.AIModel
	if model == "" {
		model = s.defaultModel
	}

	project := &models.Project{
		Name:     strings.TrimSpace(req.Name),
		AIBudget: budget,
		AIModel:  model,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", project.ID,
		"name", project.Name,
		"ai_model", project.AIModel,
	)

	return project, nil
}

// GetProject retrieves a project by ID
func (s *projectService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, projectID)
}

// validateCreateRequest validates a create project request
func (s *projectService) validateCreateRequest(req *docsysSvc.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
		),
	)
}
