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
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     docsysRepo.DocumentRepository
	projectRepo docsysRepo.ProjectRepository
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	projectRepo docsysRepo.ProjectRepository,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:     docRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// CreateDocument creates a new document. The document starts with no
// versions; content is submitted separately through the version store.
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	status := models.DocumentStatus(req.Status)
	if req.Status == "" {
		status = models.DocumentStatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown document status %q", domain.ErrValidation, req.Status)
	}

	// Reject unknown projects up front for a clean not-found instead of a
	// foreign key surprise at insert time
	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ProjectID: req.ProjectID,
		Title:     strings.TrimSpace(req.Title),
		Type:      req.Type,
		Status:    status,
		Metadata:  req.Metadata,
		CreatedBy: req.UserID,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"title", doc.Title,
	)

	return doc, nil
}

// GetDocument retrieves a document by ID
func (s *documentService) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, documentID)
}

// ListDocuments lists a project's documents
func (s *documentService) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	return s.docRepo.ListByProject(ctx, projectID)
}

// validateCreateRequest validates a create document request
func (s *documentService) validateCreateRequest(req *docsysSvc.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		validation.Field(&req.Type, validation.Required),
	)
}
