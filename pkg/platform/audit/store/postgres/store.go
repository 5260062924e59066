package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "hostelgate/pkg/domain"
	audit "hostelgate/pkg/platform/audit"
	txcontext "hostelgate/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an event. Events carrying an ID are idempotent so a replay
// after a partial failure does not duplicate rows.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := event.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, resident_id, movement_id, kind,
			action, decision, reason, actor_id, request_id, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		nullableInt(int64(event.ResidentID)),
		nullableInt(int64(event.MovementID)),
		event.Kind,
		event.Action,
		event.Decision,
		event.Reason,
		event.ActorID,
		event.RequestID,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, category, occurred_at, resident_id, movement_id, kind,
	       action, decision, reason, actor_id, request_id, device
	FROM audit_events
`

// ListByResident returns the resident's events oldest first.
func (s *Store) ListByResident(ctx context.Context, residentID id.ResidentID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE resident_id = $1 ORDER BY occurred_at ASC`, int64(residentID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			category   string
			residentID sql.NullInt64
			movementID sql.NullInt64
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&residentID,
			&movementID,
			&event.Kind,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.ActorID,
			&event.RequestID,
			&event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.ResidentID = id.ResidentID(residentID.Int64)
		event.MovementID = id.MovementID(movementID.Int64)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v > 0}
}
