package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tenantgate/internal/application/models"
	"tenantgate/internal/application/service"
	"tenantgate/internal/platform/middleware"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/domain"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Handler exposes the applicant and admin application endpoints.
type Handler struct {
	applications *service.Service
	logger       *slog.Logger
	validator    middleware.JWTValidator
	revocation   middleware.RevocationChecker
}

func New(applications *service.Service, validator middleware.JWTValidator, revocation middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		applications: applications,
		logger:       logger,
		validator:    validator,
		revocation:   revocation,
	}
}

// Register mounts the application routes. Applicant routes are scoped to the
// authenticated owner; review routes additionally require the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocation, h.logger))
		r.Post("/applications", h.handleSubmit)
		r.Get("/applications", h.handleGetOwn)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/admin/applications", h.handleList)
			r.Get("/admin/applications/{id}", h.handleGetByID)
			r.Patch("/admin/applications/{id}", h.handleDecide)
			r.Get("/admin/stats", h.handleStats)
		})
	})
}

type submitRequest struct {
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	CurrentAddress   string `json:"current_address"`
	EmploymentStatus string `json:"employment_status"`
	MonthlyIncome    string `json:"monthly_income"`

	LandlordName    string `json:"landlord_name"`
	LandlordContact string `json:"landlord_contact"`
	Notes           string `json:"notes"`

	IDDocumentURL    string `json:"id_document_url"`
	IncomeProofURL   string `json:"income_proof_url"`
	RentalHistoryURL string `json:"rental_history_url"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	income := decimal.Zero
	if req.MonthlyIncome != "" {
		parsed, err := decimal.NewFromString(req.MonthlyIncome)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "monthly_income is not a valid number"))
			return
		}
		income = parsed
	}

	app, err := h.applications.Submit(ctx, requestcontext.UserID(ctx), service.SubmitParams{
		Profile: models.Profile{
			FullName:         req.FullName,
			Email:            req.Email,
			Phone:            req.Phone,
			CurrentAddress:   req.CurrentAddress,
			EmploymentStatus: req.EmploymentStatus,
			MonthlyIncome:    income,
		},
		References: models.References{
			LandlordName:    req.LandlordName,
			LandlordContact: req.LandlordContact,
			Notes:           req.Notes,
		},
		Documents: models.Documents{
			IDDocumentURL:    req.IDDocumentURL,
			IncomeProofURL:   req.IncomeProofURL,
			RentalHistoryURL: req.RentalHistoryURL,
		},
	})
	if err != nil {
		h.writeServiceError(w, r, "application submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

type ownApplicationResponse struct {
	Application *models.Application `json:"application"`
}

// handleGetOwn returns the caller's most recent application. Ownership comes
// from the token, never from request parameters.
func (h *Handler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	app, err := h.applications.GetByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(w, r, "application lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ownApplicationResponse{Application: app})
}

type listResponse struct {
	Applications []*models.Application `json:"applications"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter models.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}
	filter.Query = r.URL.Query().Get("q")

	apps, err := h.applications.List(ctx, filter)
	if err != nil {
		h.writeServiceError(w, r, "application listing failed", err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Applications: apps})
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.applications.GetByID(ctx, appID)
	if err != nil {
		h.writeServiceError(w, r, "application lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

type decideRequest struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	event, err := models.ParseEvent(req.Event)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := service.Actor{
		ID:   requestcontext.UserID(ctx),
		Role: requestcontext.Role(ctx),
	}
	app, err := h.applications.Decide(ctx, actor, appID, event, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "application decision failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.applications.Stats(ctx)
	if err != nil {
		h.writeServiceError(w, r, "stats computation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
