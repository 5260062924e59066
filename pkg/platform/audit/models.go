package audit

import (
	"context"
	"time"

	id "hostelgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to the resident directory and the
	// movement ledger. These are the records a warden is asked to produce.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failed logins and rejected movements.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine session activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	// Directory events
	EventResidentCreated AuditEvent = "resident_created"
	EventResidentUpdated AuditEvent = "resident_updated"
	EventResidentDeleted AuditEvent = "resident_deleted"

	// Gate events
	EventMovementRecorded AuditEvent = "movement_recorded"
	EventMovementRejected AuditEvent = "movement_rejected"

	// Session events
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventLoggedOut      AuditEvent = "logged_out"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventResidentCreated:  CategoryCompliance,
	EventResidentUpdated:  CategoryCompliance,
	EventResidentDeleted:  CategoryCompliance,
	EventMovementRecorded: CategoryCompliance,

	EventMovementRejected: CategorySecurity,
	EventLoginFailed:      CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventLoggedOut:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string        `json:"id"`
	Category   EventCategory `json:"category"`
	Timestamp  time.Time     `json:"timestamp"`
	ResidentID id.ResidentID `json:"resident_id,omitempty"`
	MovementID id.MovementID `json:"movement_id,omitempty"`
	// Kind is the movement direction for gate events.
	Kind     string `json:"kind,omitempty"`
	Action   string `json:"action"`
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
	// ActorID is the username of the staff member or resident who acted.
	ActorID   string `json:"actor_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Device describes the client that submitted the request, derived from
	// its User-Agent.
	Device string `json:"device,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByResident(ctx context.Context, residentID id.ResidentID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
