package service

import (
	"context"
	"errors"
	"log/slog"

	"hostelgate/internal/platform/device"
	"hostelgate/internal/platform/metrics"
	"hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/sentinel"
	"hostelgate/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Resident) error
	FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	List(ctx context.Context) ([]*models.Resident, error)
	Update(ctx context.Context, r *models.Resident) error
	Delete(ctx context.Context, residentID id.ResidentID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the resident directory. It never touches a resident's
// gate status; only recorded movements do.
type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a resident who starts inside the facility.
func (s *Service) Create(ctx context.Context, req *models.CreateResidentRequest) (*models.Resident, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Use constructor which validates invariants
	resident, err := models.NewResident(req.RegisterNo, req.Name, req.RoomNo, req.Course, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}

	if err := s.store.Create(ctx, resident); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "register number already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create resident")
	}

	s.logger.InfoContext(ctx, "resident created",
		"resident_id", resident.ID,
		"register_no", resident.RegisterNo,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementResidentsCreated()
	}
	s.emitAudit(ctx, audit.EventResidentCreated, resident.ID)
	return resident, nil
}

func (s *Service) Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	resident, err := s.store.FindByID(ctx, residentID)
	if err != nil {
		return nil, translateLookup(err)
	}
	return resident, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Resident, error) {
	residents, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list residents")
	}
	return residents, nil
}

// Update applies a partial profile change.
func (s *Service) Update(ctx context.Context, residentID id.ResidentID, req *models.UpdateResidentRequest) (*models.Resident, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resident, err := s.store.FindByID(ctx, residentID)
	if err != nil {
		return nil, translateLookup(err)
	}
	req.Apply(resident)
	resident.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, resident); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "register number already exists")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "resident not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update resident")
	}

	s.emitAudit(ctx, audit.EventResidentUpdated, resident.ID)
	return resident, nil
}

// Delete removes the resident from the directory. Their movements stay in
// the ledger.
func (s *Service) Delete(ctx context.Context, residentID id.ResidentID) error {
	if err := s.store.Delete(ctx, residentID); err != nil {
		return translateLookup(err)
	}
	s.logger.InfoContext(ctx, "resident deleted",
		"resident_id", residentID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventResidentDeleted, residentID)
	return nil
}

func translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "resident not found")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load resident")
}

func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, residentID id.ResidentID) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(context.WithoutCancel(ctx), audit.Event{
		Action:     string(event),
		Timestamp:  requestcontext.Now(ctx),
		ResidentID: residentID,
		ActorID:    requestcontext.Actor(ctx).Username,
		RequestID:  requestcontext.RequestID(ctx),
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event,
			"resident_id", residentID,
			"error", err,
		)
	}
}
