package models

import (
	"slices"
	"time"

	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
)

// PendingStatus marks the missing half of an unpaired log entry.
const PendingStatus = "Pending"

// LogEntry pairs an entry with the exit that closed it. Either half may be
// missing: an exit with no recorded entry, or an entry still open.
type LogEntry struct {
	ResidentID      id.ResidentID  `json:"resident_id"`
	Name            string         `json:"name,omitempty"`
	RegisterNo      string         `json:"register_no,omitempty"`
	EntryMovementID *id.MovementID `json:"entry_movement_id,omitempty"`
	ExitMovementID  *id.MovementID `json:"exit_movement_id,omitempty"`
	EntryTime       *time.Time     `json:"entry_time"`
	ExitTime        *time.Time     `json:"exit_time"`
	EntryStatus     string         `json:"entry_status"`
	ExitStatus      string         `json:"exit_status"`
	Remarks         string         `json:"remarks"`
}

// DashboardStats is a point-in-time summary for the dashboards.
type DashboardStats struct {
	Total         int       `json:"total_students"`
	Inside        int       `json:"inside"`
	Outside       int       `json:"outside"`
	LeftToday     int       `json:"left_today"`
	ReturnedToday int       `json:"returned_today"`
	AsOf          time.Time `json:"as_of"`
}

// Mismatch is a resident whose cached status disagrees with a replay of the
// ledger.
type Mismatch struct {
	ResidentID     id.ResidentID        `json:"resident_id"`
	RegisterNo     string               `json:"register_no"`
	CachedStatus   residentModel.Status `json:"cached_status"`
	ReplayedStatus residentModel.Status `json:"replayed_status"`
	LastMovementID *id.MovementID       `json:"last_movement_id,omitempty"`
	LedgerLastID   *id.MovementID       `json:"ledger_last_id,omitempty"`
}

// ScanFilter narrows a ledger scan. Results are always ascending by id.
type ScanFilter struct {
	ResidentIDs []id.ResidentID
	// Since is inclusive, Until exclusive.
	Since *time.Time
	Until *time.Time
}

// Matches reports whether m passes the filter.
func (f ScanFilter) Matches(m *Movement) bool {
	if len(f.ResidentIDs) > 0 && !slices.Contains(f.ResidentIDs, m.ResidentID) {
		return false
	}
	if f.Since != nil && m.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !m.Timestamp.Before(*f.Until) {
		return false
	}
	return true
}

// RecordMovementRequest is the gate terminal payload.
type RecordMovementRequest struct {
	ResidentID   id.ResidentID `json:"student_id"`
	MovementType string        `json:"movement_type"`
	Status       string        `json:"status"`
	Remarks      string        `json:"remarks"`
}
