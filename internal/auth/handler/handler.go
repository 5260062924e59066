package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostelgate/internal/auth/models"
	"hostelgate/internal/platform/middleware"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/httputil"
	"hostelgate/pkg/requestcontext"
)

// Service defines the login and logout operations.
type Service interface {
	StaffLogin(ctx context.Context, role models.Role, req *models.LoginRequest) (*models.LoginResult, error)
	ResidentLogin(ctx context.Context, req *models.ResidentLoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, principal requestcontext.Principal) error
}

// Handler serves the admin, watchman and resident session endpoints.
type Handler struct {
	logger       *slog.Logger
	auth         Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
	loginLimit   func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithLoginLimit guards the public login routes, typically with a per-IP
// rate limit.
func WithLoginLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.loginLimit = mw
	}
}

func New(auth Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.TokenRevocationChecker, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		auth:         auth,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type loginResponse struct {
	Message string `json:"message"`
	*models.LoginResult
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register registers the session routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		if h.loginLimit != nil {
			r.Use(h.loginLimit)
		}
		r.Use(middleware.ContentTypeJSON)
		r.Post("/login", h.staffLogin(models.RoleAdmin, "Admin logged in"))
		r.Post("/watchman/login", h.staffLogin(models.RoleWatchman, "Watchman logged in"))
		r.Post("/student/login", h.handleResidentLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.With(middleware.RequireRole(h.logger, string(models.RoleAdmin))).
			Get("/logout", h.logout("Admin logged out"))
		r.With(middleware.RequireRole(h.logger, string(models.RoleWatchman))).
			Get("/watchman/logout", h.logout("Watchman logged out"))
		r.With(middleware.RequireRole(h.logger, string(models.RoleResident))).
			Get("/student/logout", h.logout("Student logged out"))
	})
}

func (h *Handler) staffLogin(role models.Role, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetRequestID(ctx)

		var req models.LoginRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.logger.WarnContext(ctx, "invalid login request",
				"request_id", requestID,
				"role", role,
			)
			httputil.WriteError(w, err)
			return
		}

		result, err := h.auth.StaffLogin(ctx, role, &req)
		if err != nil {
			h.writeLoginError(ctx, w, role, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, loginResponse{Message: message, LoginResult: result})
	}
}

func (h *Handler) handleResidentLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ResidentLoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid resident login request",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.auth.ResidentLogin(ctx, &req)
	if err != nil {
		h.writeLoginError(ctx, w, models.RoleResident, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Message: "Student logged in", LoginResult: result})
}

func (h *Handler) writeLoginError(ctx context.Context, w http.ResponseWriter, role models.Role, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.Is(err, dErrors.CodeUnavailable) {
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", middleware.GetRequestID(ctx),
			"role", role,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) logout(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := middleware.GetPrincipal(ctx)
		if err := h.auth.Logout(ctx, principal); err != nil {
			h.logger.ErrorContext(ctx, "logout failed",
				"request_id", middleware.GetRequestID(ctx),
				"username", principal.Username,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: message})
	}
}
