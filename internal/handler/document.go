package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	docsysSvc "revisor/internal/domain/services/docsystem"
	"revisor/internal/httputil"
)

// DocumentHandler handles document and version HTTP requests
type DocumentHandler struct {
	docService   docsysSvc.DocumentService
	versionStore docsysSvc.VersionStore
	logger       *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, versionStore docsysSvc.VersionStore, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:   docService,
		versionStore: versionStore,
		logger:       logger,
	}
}

// CreateDocument creates a new document
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req docsysSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListDocuments lists a project's documents
// GET /api/projects/{id}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.docService.ListDocuments(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// CreateVersion submits new content for a document, allocating the next
// version number
// POST /api/documents/{id}/versions
func (h *DocumentHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req docsysSvc.CreateVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DocumentID = id
	req.AuthorID = userID

	version, err := h.versionStore.CreateVersion(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// ListVersions lists a document's version history (metadata only, no bodies)
// GET /api/documents/{id}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.versionStore.ListVersions(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// GetVersion fetches one version of a document, content and diff included
// GET /api/documents/{id}/versions/{version}
func (h *DocumentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "version must be a positive integer")
		return
	}

	v, err := h.versionStore.GetVersion(r.Context(), id, version)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, v)
}

// VerifyChain replays a document's stored diffs and reports whether the
// chain still reconstructs every version
// GET /api/documents/{id}/verify
func (h *DocumentHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.versionStore.VerifyChain(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
