package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hostelgate/internal/movement/metrics"
	"hostelgate/internal/movement/models"
	"hostelgate/internal/movement/reconcile"
	"hostelgate/internal/movement/stats"
	"hostelgate/internal/platform/device"
	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/sentinel"
	"hostelgate/pkg/requestcontext"
)

// Directory is the resident directory as seen by the gate.
type Directory interface {
	FindByID(ctx context.Context, residentID id.ResidentID) (*residentModel.Resident, error)
	// UpdateStatus moves the cached status from expected to next and records
	// movementID as the last movement. It returns sentinel.ErrInvalidState
	// when the current status is not expected.
	UpdateStatus(ctx context.Context, residentID id.ResidentID, expected, next residentModel.Status, movementID id.MovementID, now time.Time) error
	List(ctx context.Context) ([]*residentModel.Resident, error)
}

// Ledger is the append-only movement log.
type Ledger interface {
	NextID(ctx context.Context) (id.MovementID, error)
	Append(ctx context.Context, m *models.Movement) error
	Scan(ctx context.Context, filter models.ScanFilter) ([]*models.Movement, error)
}

// ResidentLocker serializes the accept sequence for one resident across
// processes.
type ResidentLocker interface {
	Acquire(ctx context.Context, residentID id.ResidentID) (release func(context.Context) error, err error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service validates and records gate movements and derives logs and
// dashboards from the ledger.
type Service struct {
	directory      Directory
	ledger         Ledger
	tx             MovementTx
	locker         ResidentLocker
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	location       *time.Location
	clock          func() time.Time

	// stampMu pairs each id reservation with its clock reading.
	stampMu sync.Mutex
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

// WithTx replaces the in-process transaction runner, e.g. with one backed by
// a database transaction.
func WithTx(tx MovementTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithLocker adds a cross-process lock taken before each transaction.
func WithLocker(locker ResidentLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithLocation sets the time zone that defines "today" on dashboards.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithClock sets the clock that stamps accepted movements (defaults to
// time.Now).
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service. Without WithTx the accept sequence runs under
// in-process resident locks.
func New(directory Directory, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		ledger:    ledger,
		logger:    slog.Default(),
		tracer:    otel.Tracer("hostelgate/movement"),
		location:  time.Local,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewInMemoryTx(directory, ledger, 0)
	}
	return s
}

// RecordMovement validates kind against the resident's current status and,
// when accepted, appends the movement and updates the cached status as one
// unit. An empty status records the default label for kind.
func (s *Service) RecordMovement(ctx context.Context, residentID id.ResidentID, kind models.Kind, status, remarks string) (*models.Movement, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "movement.record", trace.WithAttributes(
		attribute.Int64("resident.id", int64(residentID)),
		attribute.String("movement.kind", kind.String()),
	))
	defer span.End()

	movement, err := s.recordMovement(ctx, residentID, kind, status, remarks)
	if s.metrics != nil {
		s.metrics.ObserveRecord(start)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		s.rejected(ctx, residentID, kind, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("movement.id", int64(movement.ID)))
	s.accepted(ctx, movement)
	return movement, nil
}

func (s *Service) recordMovement(ctx context.Context, residentID id.ResidentID, kind models.Kind, status, remarks string) (*models.Movement, error) {
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidKind, "movement type must be entry or exit")
	}
	if status == "" {
		status = kind.DefaultStatus()
	}

	if s.locker != nil {
		if err := ctx.Err(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "movement aborted: context cancelled")
		}
		release, err := s.locker.Acquire(ctx, residentID)
		if err != nil {
			return nil, translateLockError(err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "failed to release resident lock",
					"resident_id", residentID,
					"error", err,
				)
			}
		}()
	}

	var recorded *models.Movement
	err := s.tx.RunInTx(ctx, residentID, func(txCtx context.Context, stores Stores) error {
		resident, err := stores.Directory.FindByID(txCtx, residentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "resident not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load resident")
		}

		next, err := models.NextStatus(resident.CurrentStatus, kind)
		if err != nil {
			return err
		}

		movementID, now, err := s.stamp(txCtx, stores.Ledger)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to reserve movement id")
		}

		if err := stores.Directory.UpdateStatus(txCtx, residentID, resident.CurrentStatus, next, movementID, now); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInvalidState):
				return dErrors.New(dErrors.CodeRedundantMovement, "resident status changed concurrently")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "resident not found")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update resident status")
		}

		movement := &models.Movement{
			ID:         movementID,
			ResidentID: residentID,
			Kind:       kind,
			Timestamp:  now,
			Status:     status,
			Remarks:    remarks,
		}
		if err := stores.Ledger.Append(txCtx, movement); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "movement id already recorded")
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to append movement")
		}
		recorded = movement
		return nil
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "movement transaction failed")
		}
		return nil, err
	}
	return recorded, nil
}

// stamp reserves the next ledger id and reads the clock under one mutex, so
// a higher id never carries an earlier timestamp within this process. It runs
// with the resident lock held; the wait for that lock is not part of the
// movement time.
func (s *Service) stamp(ctx context.Context, ledger Ledger) (id.MovementID, time.Time, error) {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	movementID, err := ledger.NextID(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}
	return movementID, s.clock(), nil
}

func translateLockError(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "timed out waiting for resident lock")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "resident lock unavailable")
}

// Logs reconciles the ledger into entry/exit pairs, newest first. A nil scope
// covers every resident; otherwise the resident must exist.
func (s *Service) Logs(ctx context.Context, scope *id.ResidentID) ([]models.LogEntry, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "movement.logs")
	defer span.End()

	filter := models.ScanFilter{}
	if scope != nil {
		span.SetAttributes(attribute.Int64("resident.id", int64(*scope)))
		if _, err := s.directory.FindByID(ctx, *scope); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "resident not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load resident")
		}
		filter.ResidentIDs = []id.ResidentID{*scope}
	}

	var (
		movements []*models.Movement
		residents []*residentModel.Resident
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movements, err = s.ledger.Scan(gctx, filter)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read movement ledger")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		residents, err = s.directory.List(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list residents")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		return nil, err
	}

	entries := reconcile.Logs(movements, scope)
	byID := make(map[id.ResidentID]*residentModel.Resident, len(residents))
	for _, r := range residents {
		byID[r.ID] = r
	}
	for i := range entries {
		if r, ok := byID[entries[i].ResidentID]; ok {
			entries[i].Name = r.Name
			entries[i].RegisterNo = r.RegisterNo
		}
	}

	span.SetAttributes(attribute.Int("logs.entries", len(entries)))
	if s.metrics != nil {
		s.metrics.ObserveReconcile(start)
	}
	return entries, nil
}

// Dashboard summarizes who is inside or outside and today's traffic.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := s.tracer.Start(ctx, "movement.dashboard")
	defer span.End()

	now := requestcontext.Now(ctx)
	dayStart, dayEnd := stats.DayBounds(now, s.location)

	var (
		residents []*residentModel.Resident
		movements []*models.Movement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		residents, err = s.directory.List(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list residents")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		movements, err = s.ledger.Scan(gctx, models.ScanFilter{Since: &dayStart, Until: &dayEnd})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read movement ledger")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		return nil, err
	}

	snapshot := stats.Snapshot(residents, movements, now, s.location)
	return &snapshot, nil
}

// VerifyConsistency replays the whole ledger and reports every resident whose
// cached status or last movement disagrees with the replay.
func (s *Service) VerifyConsistency(ctx context.Context) ([]models.Mismatch, error) {
	ctx, span := s.tracer.Start(ctx, "movement.verify_consistency")
	defer span.End()

	residents, err := s.directory.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list residents")
	}
	movements, err := s.ledger.Scan(ctx, models.ScanFilter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read movement ledger")
	}

	byResident := make(map[id.ResidentID][]*models.Movement)
	for _, m := range movements {
		byResident[m.ResidentID] = append(byResident[m.ResidentID], m)
	}

	mismatches := []models.Mismatch{}
	for _, r := range residents {
		history := byResident[r.ID]
		replayed := models.FoldStatus(history)
		var ledgerLast *id.MovementID
		if len(history) > 0 {
			last := history[len(history)-1].ID
			ledgerLast = &last
		}
		if replayed == r.CurrentStatus && sameMovement(r.LastMovementID, ledgerLast) {
			continue
		}
		mismatches = append(mismatches, models.Mismatch{
			ResidentID:     r.ID,
			RegisterNo:     r.RegisterNo,
			CachedStatus:   r.CurrentStatus,
			ReplayedStatus: replayed,
			LastMovementID: r.LastMovementID,
			LedgerLastID:   ledgerLast,
		})
	}

	if len(mismatches) > 0 {
		s.logger.WarnContext(ctx, "resident status drifted from ledger",
			"mismatches", len(mismatches),
		)
	}
	if s.metrics != nil {
		s.metrics.SetMismatches(len(mismatches))
	}
	span.SetAttributes(attribute.Int("consistency.mismatches", len(mismatches)))
	return mismatches, nil
}

func sameMovement(a, b *id.MovementID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) accepted(ctx context.Context, m *models.Movement) {
	s.logger.InfoContext(ctx, "movement recorded",
		"resident_id", m.ResidentID,
		"movement_id", m.ID,
		"kind", m.Kind,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecorded(m.Kind.String())
	}
	s.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventMovementRecorded),
		ResidentID: m.ResidentID,
		MovementID: m.ID,
		Kind:       m.Kind.String(),
		Decision:   "accepted",
		Timestamp:  m.Timestamp,
	})
}

func (s *Service) rejected(ctx context.Context, residentID id.ResidentID, kind models.Kind, err error) {
	code := dErrors.CodeOf(err)
	level := slog.LevelInfo
	if code == dErrors.CodeUnavailable || code == dErrors.CodeTimeout || code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "movement rejected",
		"resident_id", residentID,
		"kind", kind,
		"reason", code,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRejected(string(code))
	}
	s.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventMovementRejected),
		ResidentID: residentID,
		Kind:       kind.String(),
		Decision:   "rejected",
		Reason:     string(code),
	})
}

// emitAudit fills in who and where from the request and publishes. Audit
// failures are logged and never fail the movement.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.ActorID = requestcontext.Actor(ctx).Username
	event.RequestID = requestcontext.RequestID(ctx)
	event.Device = device.ParseUserAgent(requestcontext.UserAgent(ctx))
	if err := s.auditPublisher.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"resident_id", event.ResidentID,
			"error", err,
		)
	}
}
