package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tenantgate/internal/identity/models"
	"tenantgate/internal/identity/service"
	"tenantgate/internal/platform/middleware"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Handler exposes registration, login and profile endpoints.
type Handler struct {
	identity   *service.Service
	logger     *slog.Logger
	validator  middleware.JWTValidator
	revocation middleware.RevocationChecker
}

func New(identity *service.Service, validator middleware.JWTValidator, revocation middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		identity:   identity,
		logger:     logger,
		validator:  validator,
		revocation: revocation,
	}
}

// Register mounts the identity routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocation, h.logger))
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.identity.Register(ctx, service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, "registration failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, user, err := h.identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.identity.Logout(ctx, token); err != nil {
		h.writeServiceError(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.identity.Profile(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeServiceError(w, r, "profile lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	AvatarURL string `json:"avatar_url"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.identity.UpdateProfile(ctx, requestcontext.UserID(ctx), models.ProfileUpdate{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.writeServiceError(w, r, "profile update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// writeServiceError logs internal failures and lets coded errors pass through
// to the standard status mapping.
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
