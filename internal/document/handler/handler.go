package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantgate/internal/document/models"
	"tenantgate/internal/document/service"
	"tenantgate/internal/platform/middleware"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Handler exposes the document upload endpoint.
type Handler struct {
	documents  *service.Service
	logger     *slog.Logger
	validator  middleware.JWTValidator
	revocation middleware.RevocationChecker
}

func New(documents *service.Service, validator middleware.JWTValidator, revocation middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		documents:  documents,
		logger:     logger,
		validator:  validator,
		revocation: revocation,
	}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocation, h.logger))
		r.Post("/documents", h.handleUpload)
	})
}

// handleUpload accepts a multipart form with a "kind" field and a "file"
// part. The request body is capped slightly above the document limit so the
// size check produces a validation error instead of a truncated read.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, models.MaxSizeBytes+1<<20)
	if err := r.ParseMultipartForm(models.MaxSizeBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}

	kind, err := models.ParseKind(r.FormValue("kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file part is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read file"))
		return
	}

	doc, err := h.documents.Upload(ctx, requestcontext.UserID(ctx), kind, data)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "document upload failed",
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}
