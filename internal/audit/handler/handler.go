// Package handler serves the admin view of the audit trail.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hostelgate/internal/platform/middleware"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	audit "hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/httputil"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Reader lists stored audit events.
type Reader interface {
	List(ctx context.Context, residentID id.ResidentID) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	logger       *slog.Logger
	events       Reader
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

func New(events Reader, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		events:       events,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

type eventsResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Use(middleware.RequireRole(h.logger, "admin"))

		r.Get("/admin/audit", h.handleRecent)
		r.Get("/admin/audit/residents/{id}", h.handleResident)
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.events.Recent(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, "list recent audit events", err)
		return
	}
	h.respond(w, events)
}

func (h *Handler) handleResident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.events.List(ctx, residentID)
	if err != nil {
		h.writeError(ctx, w, "list resident audit events", err)
		return
	}
	h.respond(w, events)
}

func (h *Handler) respond(w http.ResponseWriter, events []audit.Event) {
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// parseLimit defaults an empty value and clamps large ones.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

// writeError reports store failures as unavailable.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.ErrorContext(ctx, op+" failed",
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	httputil.WriteError(w, err)
}
