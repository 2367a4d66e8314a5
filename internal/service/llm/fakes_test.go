package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"revisor/internal/domain"
	docsysModels "revisor/internal/domain/models/docsystem"
	models "revisor/internal/domain/models/llm"
	"revisor/internal/domain/repositories"

	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProjectRepo is an in-memory ProjectRepository
type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*docsysModels.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*docsysModels.Project)}
}

func (r *fakeProjectRepo) addProject(id string, budget *decimal.Decimal, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[id] = &docsysModels.Project{ID: id, Name: id, AIBudget: budget, AIModel: model}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *docsysModels.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.ID = fmt.Sprintf("proj-%d", len(r.projects)+1)
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*docsysModels.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// fakeRequestRepo is an in-memory RequestRepository with the same guarded
// compare-and-set semantics as the postgres implementation
type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.AiRequest
	nextID   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.AiRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *models.AiRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = fmt.Sprintf("req-%d", r.nextID)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.AiRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus, failureReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	for _, f := range from {
		if req.Status == f {
			req.Status = to
			if failureReason != nil {
				req.FailureReason = failureReason
			}
			req.UpdatedAt = time.Now()
			return nil
		}
	}

	expected := make([]string, len(from))
	for i, f := range from {
		expected[i] = string(f)
	}
	return &domain.InvalidStateError{
		RequestID: id,
		Expected:  strings.Join(expected, "|"),
		Actual:    string(req.Status),
	}
}

func (r *fakeRequestRepo) Finalize(ctx context.Context, id string, totalTokens int64, totalCost decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	tokens := int(totalTokens)
	req.TotalTokens = &tokens
	req.TotalCost = &totalCost
	req.FinalizedAt = &at
	return nil
}

// fakeResponseRepo is an in-memory ResponseRepository
type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[string][]models.AiResponse
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[string][]models.AiResponse)}
}

func (r *fakeResponseRepo) Create(ctx context.Context, resp *models.AiResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp.ID = fmt.Sprintf("resp-%s-%d", resp.RequestID, len(r.responses[resp.RequestID])+1)
	resp.CreatedAt = time.Now()
	r.responses[resp.RequestID] = append(r.responses[resp.RequestID], *resp)
	return nil
}

func (r *fakeResponseRepo) ListByRequest(ctx context.Context, requestID string) ([]models.AiResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AiResponse{}, r.responses[requestID]...), nil
}

// fakeUsageRepo is an in-memory UsageRepository. projectOf maps requests to
// projects so the project-scoped aggregates work without a join.
type fakeUsageRepo struct {
	mu        sync.Mutex
	rows      []models.UsageTracking
	projectOf map[string]string
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{projectOf: make(map[string]string)}
}

func (r *fakeUsageRepo) linkRequest(requestID, projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectOf[requestID] = projectID
}

func (r *fakeUsageRepo) Create(ctx context.Context, usage *models.UsageTracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	usage.ID = fmt.Sprintf("usage-%d", len(r.rows)+1)
	usage.CreatedAt = time.Now()
	r.rows = append(r.rows, *usage)
	return nil
}

func (r *fakeUsageRepo) ListByRequest(ctx context.Context, requestID string) ([]models.UsageTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UsageTracking
	for _, row := range r.rows {
		if row.RequestID == requestID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) SumCostByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, row := range r.rows {
		if r.projectOf[row.RequestID] == projectID && row.CostEstimate != nil {
			sum = sum.Add(*row.CostEstimate)
		}
	}
	return sum, nil
}

func (r *fakeUsageRepo) SummarizeByProject(ctx context.Context, projectID string) ([]models.ModelUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byModel := make(map[string]*models.ModelUsage)
	seen := make(map[string]map[string]bool)
	var order []string

	for _, row := range r.rows {
		if r.projectOf[row.RequestID] != projectID {
			continue
		}
		m, ok := byModel[row.Model]
		if !ok {
			m = &models.ModelUsage{Model: row.Model, Cost: decimal.Zero}
			byModel[row.Model] = m
			seen[row.Model] = make(map[string]bool)
			order = append(order, row.Model)
		}
		if !seen[row.Model][row.RequestID] {
			seen[row.Model][row.RequestID] = true
			m.Requests++
		}
		m.PromptTokens += int64(row.PromptTokens)
		m.CompletionTokens += int64(row.CompletionTokens)
		m.TotalTokens += int64(row.TotalTokens)
		if row.CostEstimate != nil {
			m.Cost = m.Cost.Add(*row.CostEstimate)
		}
	}

	out := make([]models.ModelUsage, 0, len(order))
	for _, model := range order {
		out = append(out, *byModel[model])
	}
	return out, nil
}

// fakeTxManager runs the function directly; the fakes have no transactions
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// newPendingRequest seeds a PENDING request directly into the fake repo
func newPendingRequest(t *testing.T, repo *fakeRequestRepo) *models.AiRequest {
	t.Helper()
	req := &models.AiRequest{
		UserID: "user-1",
		Type:   models.RequestTypeGeneral,
		Status: models.StatusPending,
		Prompt: "summarize this",
		Model:  "claude-haiku-4-5",
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}
