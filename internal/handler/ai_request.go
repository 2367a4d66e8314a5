package handler

import (
	"log/slog"
	"net/http"

	llmSvc "revisor/internal/domain/services/llm"
	"revisor/internal/httputil"
)

// AiRequestHandler handles AI request lifecycle and usage HTTP requests
type AiRequestHandler struct {
	lifecycle llmSvc.RequestLifecycle
	ledger    llmSvc.UsageLedger
	logger    *slog.Logger
}

// NewAiRequestHandler creates a new AI request handler
func NewAiRequestHandler(lifecycle llmSvc.RequestLifecycle, ledger llmSvc.UsageLedger, logger *slog.Logger) *AiRequestHandler {
	return &AiRequestHandler{
		lifecycle: lifecycle,
		ledger:    ledger,
		logger:    logger,
	}
}

// Submit creates a new AI request in PENDING
// POST /api/ai/requests
func (h *AiRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req llmSvc.SubmitRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	request, err := h.lifecycle.Submit(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, request)
}

// GetRequest retrieves an AI request by ID
// GET /api/ai/requests/{id}
func (h *AiRequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	request, err := h.lifecycle.GetRequest(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, request)
}

// BeginProcessing transitions a request from PENDING to PROCESSING
// POST /api/ai/requests/{id}/begin
func (h *AiRequestHandler) BeginProcessing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) error {
		return h.lifecycle.BeginProcessing(r.Context(), id)
	})
}

// RecordResponse appends a model response to a PROCESSING request
// POST /api/ai/requests/{id}/responses
func (h *AiRequestHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req llmSvc.RecordResponseRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := h.lifecycle.RecordResponse(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, response)
}

// RecordUsage persists one model call's token counts against a request
// POST /api/ai/requests/{id}/usage
func (h *AiRequestHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req llmSvc.RecordUsageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.RequestID = id

	usage, err := h.ledger.RecordUsage(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, usage)
}

// Complete transitions a request from PROCESSING to COMPLETED
// POST /api/ai/requests/{id}/complete
func (h *AiRequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) error {
		return h.lifecycle.Complete(r.Context(), id)
	})
}

// failRequest carries the reason for a failure transition
type failRequest struct {
	Reason string `json:"reason"`
}

// Fail transitions a request from PROCESSING to FAILED
// POST /api/ai/requests/{id}/fail
func (h *AiRequestHandler) Fail(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req failRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.lifecycle.Fail(r.Context(), id, req.Reason); err != nil {
		handleError(w, err)
		return
	}

	h.respondCurrent(w, r, id)
}

// Cancel transitions a request to CANCELLED; idempotent when already cancelled
// POST /api/ai/requests/{id}/cancel
func (h *AiRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id string) error {
		return h.lifecycle.Cancel(r.Context(), id)
	})
}

// transition runs a body-less lifecycle transition and responds with the
// request's current state
func (h *AiRequestHandler) transition(w http.ResponseWriter, r *http.Request, fn func(id string) error) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := fn(id); err != nil {
		handleError(w, err)
		return
	}

	h.respondCurrent(w, r, id)
}

// respondCurrent fetches the request after a transition and returns it
func (h *AiRequestHandler) respondCurrent(w http.ResponseWriter, r *http.Request, id string) {
	request, err := h.lifecycle.GetRequest(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, request)
}
