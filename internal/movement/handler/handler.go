package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostelgate/internal/movement/models"
	"hostelgate/internal/platform/middleware"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/httputil"
)

const (
	roleAdmin    = "admin"
	roleWatchman = "watchman"
	roleResident = "resident"
)

// Service defines the gate operations exposed over HTTP.
type Service interface {
	RecordMovement(ctx context.Context, residentID id.ResidentID, kind models.Kind, status, remarks string) (*models.Movement, error)
	Logs(ctx context.Context, scope *id.ResidentID) ([]models.LogEntry, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	VerifyConsistency(ctx context.Context) ([]models.Mismatch, error)
}

// Handler serves the gate terminal, log views and dashboards.
type Handler struct {
	logger       *slog.Logger
	movements    Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

func New(movements Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		movements:    movements,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

type recordResponse struct {
	Message  string           `json:"message"`
	Movement *models.Movement `json:"movement"`
}

type logsResponse struct {
	Logs []models.LogEntry `json:"logs"`
}

type consistencyResponse struct {
	Consistent bool              `json:"consistent"`
	Mismatches []models.Mismatch `json:"mismatches"`
}

// Register registers the gate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))

		r.With(middleware.RequireRole(h.logger, roleWatchman), middleware.ContentTypeJSON).
			Post("/watchman/record", h.handleRecord)

		r.With(middleware.RequireRole(h.logger, roleAdmin, roleWatchman)).Get("/logs", h.handleLogs)
		r.With(middleware.RequireRole(h.logger, roleResident)).Get("/my_logs", h.handleMyLogs)
		r.With(middleware.RequireRole(h.logger, roleAdmin)).Get("/residents/{id}/logs", h.handleResidentLogs)

		r.With(middleware.RequireRole(h.logger, roleAdmin)).Get("/admin/dashboard", h.handleDashboard)
		r.With(middleware.RequireRole(h.logger, roleWatchman)).Get("/watchman/dashboard", h.handleDashboard)
		r.With(middleware.RequireRole(h.logger, roleResident)).Get("/student/dashboard", h.handleDashboard)

		r.With(middleware.RequireRole(h.logger, roleAdmin)).Get("/admin/consistency", h.handleConsistency)
	})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.RecordMovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid record movement request",
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	if req.ResidentID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "student_id is required"))
		return
	}
	kind, err := models.ParseKind(req.MovementType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	movement, err := h.movements.RecordMovement(ctx, req.ResidentID, kind, req.Status, req.Remarks)
	if err != nil {
		h.writeError(ctx, w, "record movement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordResponse{Message: "Movement recorded", Movement: movement})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	h.writeLogs(w, r, nil)
}

func (h *Handler) handleMyLogs(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal.ResidentID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token carries no resident"))
		return
	}
	scope := principal.ResidentID
	h.writeLogs(w, r, &scope)
}

func (h *Handler) handleResidentLogs(w http.ResponseWriter, r *http.Request) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeLogs(w, r, &residentID)
}

func (h *Handler) writeLogs(w http.ResponseWriter, r *http.Request, scope *id.ResidentID) {
	ctx := r.Context()
	entries, err := h.movements.Logs(ctx, scope)
	if err != nil {
		h.writeError(ctx, w, "load logs", err)
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, logsResponse{Logs: entries})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.movements.Dashboard(ctx)
	if err != nil {
		h.writeError(ctx, w, "load dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleConsistency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mismatches, err := h.movements.VerifyConsistency(ctx)
	if err != nil {
		h.writeError(ctx, w, "verify consistency", err)
		return
	}
	if mismatches == nil {
		mismatches = []models.Mismatch{}
	}
	httputil.WriteJSON(w, http.StatusOK, consistencyResponse{
		Consistent: len(mismatches) == 0,
		Mismatches: mismatches,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case dErrors.CodeOf(err) == dErrors.CodeInternal, dErrors.Is(err, dErrors.CodeUnavailable):
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	case dErrors.Is(err, dErrors.CodeTimeout):
		h.logger.WarnContext(ctx, op+" timed out",
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
