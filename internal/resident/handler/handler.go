package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostelgate/internal/platform/middleware"
	"hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/httputil"
)

// Service defines the directory operations the admin endpoints need.
type Service interface {
	Create(ctx context.Context, req *models.CreateResidentRequest) (*models.Resident, error)
	Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	List(ctx context.Context) ([]*models.Resident, error)
	Update(ctx context.Context, residentID id.ResidentID, req *models.UpdateResidentRequest) (*models.Resident, error)
	Delete(ctx context.Context, residentID id.ResidentID) error
}

// Handler serves the admin resident directory.
type Handler struct {
	logger       *slog.Logger
	residents    Service
	jwtValidator middleware.JWTValidator
	revocations  middleware.TokenRevocationChecker
}

func New(residents Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		logger:       logger,
		residents:    residents,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

type residentResponse struct {
	Message  string           `json:"message,omitempty"`
	Resident *models.Resident `json:"resident"`
}

type listResponse struct {
	Residents []*models.Resident `json:"residents"`
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Use(middleware.RequireRole(h.logger, "admin"))

		r.Get("/residents", h.handleList)
		r.With(middleware.ContentTypeJSON).Post("/residents", h.handleCreate)
		r.Get("/residents/{id}", h.handleGet)
		r.With(middleware.ContentTypeJSON).Put("/residents/{id}", h.handleUpdate)
		r.Delete("/residents/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateResidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create resident request",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resident, err := h.residents.Create(ctx, &req)
	if err != nil {
		h.writeError(ctx, w, "create resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, residentResponse{Message: "Student added", Resident: resident})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residents, err := h.residents.List(ctx)
	if err != nil {
		h.writeError(ctx, w, "list residents", err)
		return
	}
	if residents == nil {
		residents = []*models.Resident{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Residents: residents})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resident, err := h.residents.Get(ctx, residentID)
	if err != nil {
		h.writeError(ctx, w, "get resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, residentResponse{Resident: resident})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.UpdateResidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resident, err := h.residents.Update(ctx, residentID, &req)
	if err != nil {
		h.writeError(ctx, w, "update resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, residentResponse{Message: "Student updated", Resident: resident})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.residents.Delete(ctx, residentID); err != nil {
		h.writeError(ctx, w, "delete resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Student deleted"})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.Is(err, dErrors.CodeUnavailable) {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
