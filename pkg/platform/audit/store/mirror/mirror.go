// Package mirror writes audit events to a local store and streams them to a
// remote sink behind a circuit breaker.
package mirror

import (
	"context"
	"log/slog"

	id "hostelgate/pkg/domain"
	audit "hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/circuit"
)

// Sink is the remote stream (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Store implements audit.Store. The local store is the system of record and
// answers every read; the sink is best effort.
type Store struct {
	local   audit.Store
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

func New(local audit.Store, sink Sink, opts ...Option) *Store {
	s := &Store{
		local:   local,
		sink:    sink,
		breaker: circuit.New("audit-sink"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append persists locally first; a local failure is returned. Sink failures
// are logged and counted by the breaker, which stops calling the sink while
// it is open.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if err := s.local.Append(ctx, event); err != nil {
		return err
	}
	if !s.breaker.AllowPrimary() {
		return nil
	}
	if err := s.sink.Publish(ctx, event); err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "audit sink circuit opened; streaming paused",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		} else {
			s.logger.DebugContext(ctx, "audit sink publish failed", "error", err)
		}
		return nil
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit sink circuit closed; streaming resumed",
			"breaker", s.breaker.Name(),
		)
	}
	return nil
}

func (s *Store) ListByResident(ctx context.Context, residentID id.ResidentID) ([]audit.Event, error) {
	return s.local.ListByResident(ctx, residentID)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.local.ListRecent(ctx, limit)
}
