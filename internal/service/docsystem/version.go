package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"revisor/internal/config"
	"revisor/internal/diff"
	"revisor/internal/domain"
	models "revisor/internal/domain/models/docsystem"
	docsysRepo "revisor/internal/domain/repositories/docsystem"
	docsysSvc "revisor/internal/domain/services/docsystem"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// versionStore implements the VersionStore interface.
//
// Concurrency control is optimistic: the (document_id, version) unique
// constraint detects allocation races, and the whole read-compute-write
// cycle is retried with exponential backoff. No in-process lock is held, so
// the store stays correct across multiple service instances.
type versionStore struct {
	docRepo     docsysRepo.DocumentRepository
	versionRepo docsysRepo.VersionRepository
	engine      *diff.Engine
	logger      *slog.Logger
}

// NewVersionStore creates a new document version store
func NewVersionStore(
	docRepo docsysRepo.DocumentRepository,
	versionRepo docsysRepo.VersionRepository,
	engine *diff.Engine,
	logger *slog.Logger,
) docsysSvc.VersionStore {
	return &versionStore{
		docRepo:     docRepo,
		versionRepo: versionRepo,
		engine:      engine,
		logger:      logger,
	}
}

// CreateVersion admits a new version for a document
func (s *versionStore) CreateVersion(ctx context.Context, req *docsysSvc.CreateVersionRequest) (*models.DocumentVersion, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	exists, err := s.docRepo.Exists(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("document %s: %w", req.DocumentID, domain.ErrNotFound)
	}

	var (
		created     *models.DocumentVersion
		attempts    int
		lastVersion int
	)

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = config.VersionRetryInitialInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(config.MaxVersionRetries)), ctx)

	err = backoff.Retry(func() error {
		attempts++
		v, tried, err := s.attemptCreate(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastVersion = tried
				s.logger.Debug("version allocation race lost, retrying",
					"document_id", req.DocumentID,
					"version", tried,
					"attempt", attempts,
				)
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		created = v
		return nil
	}, bo)

	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, &domain.VersionConflictError{
				DocumentID: req.DocumentID,
				Version:    lastVersion,
				Attempts:   attempts,
			}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("create version: %w", domain.ErrTimeout)
		}
		return nil, err
	}

	s.logger.Info("document version created",
		"document_id", created.DocumentID,
		"version", created.Version,
		"attempts", attempts,
	)

	return created, nil
}

// attemptCreate runs one read-compute-write cycle and reports which version
// number it tried to allocate. Everything is recomputed from scratch on each
// call: a retry must observe the version row that won the previous race.
func (s *versionStore) attemptCreate(ctx context.Context, req *docsysSvc.CreateVersionRequest) (*models.DocumentVersion, int, error) {
	max, err := s.versionRepo.MaxVersion(ctx, req.DocumentID)
	if err != nil {
		return nil, 0, err
	}
	next := max + 1

	// diff_from_previous is nil iff version == 1
	var diffText *string
	if next > 1 {
		prev, err := s.versionRepo.GetByVersion(ctx, req.DocumentID, next-1)
		if err != nil {
			return nil, next, err
		}
		encoded := s.engine.Compute(prev.Content, req.Content).Encode()
		diffText = &encoded
	}

	v := &models.DocumentVersion{
		DocumentID:       req.DocumentID,
		Version:          next,
		Content:          req.Content,
		DiffFromPrevious: diffText,
		CommitHash:       req.CommitHash,
		CreatedBy:        req.AuthorID,
	}

	if err := s.versionRepo.Create(ctx, v); err != nil {
		return nil, next, err
	}

	return v, next, nil
}

// GetVersion retrieves one version of a document
func (s *versionStore) GetVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	if version < 1 {
		return nil, fmt.Errorf("%w: version must be positive", domain.ErrValidation)
	}
	return s.versionRepo.GetByVersion(ctx, documentID, version)
}

// ListVersions lists a document's version history (metadata only)
func (s *versionStore) ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	exists, err := s.docRepo.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// VerifyChain replays each stored diff against the prior version's content
// and reports the first version whose patch no longer reconstructs the
// stored content. Intact chains confirm the history has not drifted.
func (s *versionStore) VerifyChain(ctx context.Context, documentID string) (*models.VersionChainReport, error) {
	exists, err := s.docRepo.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	versions, err := s.versionRepo.ListWithContent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	report := &models.VersionChainReport{
		DocumentID: documentID,
		Versions:   len(versions),
		Intact:     true,
	}

	for i, v := range versions {
		if v.Version != i+1 {
			return broken(report, v.Version, fmt.Sprintf("expected version %d, found %d", i+1, v.Version)), nil
		}

		if i == 0 {
			if v.DiffFromPrevious != nil {
				return broken(report, v.Version, "version 1 carries a diff"), nil
			}
			continue
		}

		if v.DiffFromPrevious == nil {
			return broken(report, v.Version, "missing diff_from_previous"), nil
		}

		patch, err := diff.ParsePatch(*v.DiffFromPrevious)
		if err != nil {
			return broken(report, v.Version, fmt.Sprintf("unparseable diff: %v", err)), nil
		}

		reconstructed, err := s.engine.Apply(versions[i-1].Content, patch)
		if err != nil {
			return broken(report, v.Version, fmt.Sprintf("diff does not apply: %v", err)), nil
		}
		if reconstructed != v.Content {
			return broken(report, v.Version, "diff applies but reconstructs different content"), nil
		}
	}

	return report, nil
}

func broken(report *models.VersionChainReport, version int, detail string) *models.VersionChainReport {
	report.Intact = false
	report.BrokenVersion = version
	report.Detail = detail
	return report
}

// validateCreateRequest validates a create version request. Empty content is
// rejected: an empty body is almost always a caller bug, and a deliberate
// wipe can be represented by whitespace-only content.
func (s *versionStore) validateCreateRequest(req *docsysSvc.CreateVersionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.AuthorID, validation.Required),
		validation.Field(&req.Content, validation.Required),
	)
}
