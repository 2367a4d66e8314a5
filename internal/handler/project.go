package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "revisor/internal/domain/services/docsystem"
	llmSvc "revisor/internal/domain/services/llm"
	"revisor/internal/httputil"

	"github.com/shopspring/decimal"
)

// ProjectHandler handles project HTTP requests, including the usage and
// budget endpoints scoped under a project
type ProjectHandler struct {
	projectService docsysSvc.ProjectService
	ledger         llmSvc.UsageLedger
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService docsysSvc.ProjectService, ledger llmSvc.UsageLedger, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		ledger:         ledger,
		logger:         logger,
	}
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req docsysSvc.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// GetUsageSummary returns a project's aggregate token and cost usage
// GET /api/projects/{id}/usage
func (h *ProjectHandler) GetUsageSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.ledger.GetUsageSummary(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, summary)
}

// budgetCheckRequest carries the projected cost for a budget probe
type budgetCheckRequest struct {
	ProjectedCost string `json:"projected_cost"`
}

// CheckBudget evaluates whether projected spend fits the project's budget
// POST /api/projects/{id}/budget-check
func (h *ProjectHandler) CheckBudget(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req budgetCheckRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	projected := decimal.Zero
	if req.ProjectedCost != "" {
		parsed, err := decimal.NewFromString(req.ProjectedCost)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "projected_cost must be a decimal string")
			return
		}
		if parsed.IsNegative() {
			httputil.RespondError(w, http.StatusBadRequest, "projected_cost must not be negative")
			return
		}
		projected = parsed
	}

	decision, err := h.ledger.CheckBudget(r.Context(), id, projected)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, decision)
}
