package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"revisor/internal/config"
	"revisor/internal/domain"
	models "revisor/internal/domain/models/llm"
	"revisor/internal/domain/repositories"
	docsysRepo "revisor/internal/domain/repositories/docsystem"
	llmRepo "revisor/internal/domain/repositories/llm"
	llmSvc "revisor/internal/domain/services/llm"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// requestLifecycle implements the RequestLifecycle interface
type requestLifecycle struct {
	requestRepo  llmRepo.RequestRepository
	responseRepo llmRepo.ResponseRepository
	projectRepo  docsysRepo.ProjectRepository
	ledger       llmSvc.UsageLedger
	txManager    repositories.TransactionManager
	// enforceBudget upgrades the ledger's advisory budget decision to a hard
	// gate at submission
	enforceBudget bool
	defaultModel  string
	logger        *slog.Logger
}

// NewRequestLifecycle creates a new AI request lifecycle service
func NewRequestLifecycle(
	requestRepo llmRepo.RequestRepository,
	responseRepo llmRepo.ResponseRepository,
	projectRepo docsysRepo.ProjectRepository,
	ledger llmSvc.UsageLedger,
	txManager repositories.TransactionManager,
	enforceBudget bool,
	defaultModel string,
	logger *slog.Logger,
) llmSvc.RequestLifecycle {
	return &requestLifecycle{
		requestRepo:   requestRepo,
		responseRepo:  responseRepo,
		projectRepo:   projectRepo,
		ledger:        ledger,
		txManager:     txManager,
		enforceBudget: enforceBudget,
		defaultModel:  defaultModel,
		logger:        logger,
	}
}

// Submit creates a request in PENDING
func (s *requestLifecycle) Submit(ctx context.Context, req *llmSvc.SubmitRequest) (*models.AiRequest, error) {
	if err := s.validateSubmitRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	reqType := models.RequestType(req.Type)
	if !reqType.Valid() {
		return nil, fmt.Errorf("%w: unknown request type %q", domain.ErrValidation, req.Type)
	}

	model := req.Model

	if req.ProjectID != nil {
		project, err := s.projectRepo.GetByID(ctx, *req.ProjectID)
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = project.AIModel
		}

		// Consult the budget gate before admitting new spend. Projected
		// cost is zero at submission (actual spend is unknown until the
		// model responds), so this denies only projects already at or
		// over their cap.
		decision, err := s.ledger.CheckBudget(ctx, *req.ProjectID, decimal.Zero)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			if s.enforceBudget {
				return nil, fmt.Errorf("%w: project %s ai budget exhausted (remaining %s)",
					domain.ErrValidation, *req.ProjectID, decision.Remaining)
			}
			s.logger.Warn("project over ai budget, admitting anyway (advisory mode)",
				"project_id", *req.ProjectID,
				"remaining", decision.Remaining,
			)
		}
	}
	if model == "" {
		model = s.defaultModel
	}

	request := &models.AiRequest{
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
		Type:      reqType,
		Status:    models.StatusPending,
		Prompt:    req.Prompt,
		Context:   req.Context,
		Model:     model,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("ai request submitted",
		"request_id", request.ID,
		"type", request.Type,
		"model", request.Model,
	)

	return request, nil
}

// GetRequest retrieves a request by ID
func (s *requestLifecycle) GetRequest(ctx context.Context, id string) (*models.AiRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// BeginProcessing transitions PENDING -> PROCESSING
func (s *requestLifecycle) BeginProcessing(ctx context.Context, id string) error {
	return s.requestRepo.UpdateStatus(ctx, id,
		[]models.RequestStatus{models.StatusPending},
		models.StatusProcessing, nil)
}

// RecordResponse appends a response row while the request is PROCESSING.
// The status check and the insert share a transaction so a concurrent
// terminal transition cannot slip between them.
func (s *requestLifecycle) RecordResponse(ctx context.Context, id string, req *llmSvc.RecordResponseRequest) (*models.AiResponse, error) {
	if err := s.validateResponseRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	response := &models.AiResponse{
		RequestID:    id,
		Content:      req.Content,
		TokensUsed:   req.TokensUsed,
		Model:        req.Model,
		FinishReason: req.FinishReason,
		Metadata:     req.Metadata,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		current, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.Status != models.StatusProcessing {
			return &domain.InvalidStateError{
				RequestID: id,
				Expected:  string(models.StatusProcessing),
				Actual:    string(current.Status),
			}
		}
		return s.responseRepo.Create(txCtx, response)
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// Complete transitions PROCESSING -> COMPLETED. Usage finalization and the
// transition commit together: a reader never observes a completed request
// without its finalized totals.
func (s *requestLifecycle) Complete(ctx context.Context, id string) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.UpdateStatus(txCtx, id,
			[]models.RequestStatus{models.StatusProcessing},
			models.StatusCompleted, nil); err != nil {
			return err
		}
		return s.ledger.FinalizeRequest(txCtx, id)
	})
}

// Fail transitions PROCESSING -> FAILED, recording the reason
func (s *requestLifecycle) Fail(ctx context.Context, id string, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: failure reason is required", domain.ErrValidation)
	}
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.UpdateStatus(txCtx, id,
			[]models.RequestStatus{models.StatusProcessing},
			models.StatusFailed, &reason); err != nil {
			return err
		}
		return s.ledger.FinalizeRequest(txCtx, id)
	})
}

// Cancel transitions PENDING or PROCESSING -> CANCELLED. Idempotent on an
// already-cancelled request; rejects COMPLETED and FAILED.
func (s *requestLifecycle) Cancel(ctx context.Context, id string) error {
	current, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.StatusCancelled {
		return nil
	}

	err = s.requestRepo.UpdateStatus(ctx, id,
		[]models.RequestStatus{models.StatusPending, models.StatusProcessing},
		models.StatusCancelled, nil)

	// A concurrent cancel may have won between the read and the update;
	// that still counts as success for idempotency.
	var stateErr *domain.InvalidStateError
	if errors.As(err, &stateErr) && stateErr.Actual == string(models.StatusCancelled) {
		return nil
	}
	return err
}

// validateSubmitRequest validates a submit request
func (s *requestLifecycle) validateSubmitRequest(req *llmSvc.SubmitRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Type, validation.Required),
		validation.Field(&req.Prompt,
			validation.Required,
			validation.Length(1, config.MaxPromptLength),
		),
	)
}

// validateResponseRequest validates a record response request
func (s *requestLifecycle) validateResponseRequest(req *llmSvc.RecordResponseRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.TokensUsed, validation.Min(0)),
		validation.Field(&req.Model, validation.Required),
	)
}
