package models

import (
	"strings"
	"time"

	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
)

// Status is the cached location of a resident relative to the facility.
type Status string

const (
	StatusInFacility Status = "IN_FACILITY"
	StatusOutside    Status = "OUTSIDE"
)

func (s Status) IsValid() bool {
	return s == StatusInFacility || s == StatusOutside
}

// Resident is a directory record.
//
// Invariants:
//   - RegisterNo is non-empty and unique across the directory
//   - Name is non-empty
//   - CurrentStatus equals the fold of the resident's movements in the ledger,
//     or StatusInFacility when the resident has never moved
//   - CurrentStatus and LastMovementID are only written by the movement
//     accept path; profile updates never touch them
type Resident struct {
	ID             id.ResidentID  `json:"id"`
	RegisterNo     string         `json:"register_no"`
	Name           string         `json:"name"`
	RoomNo         string         `json:"room_no,omitempty"`
	Course         string         `json:"course,omitempty"`
	CurrentStatus  Status         `json:"current_status"`
	LastMovementID *id.MovementID `json:"last_movement_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewResident builds a resident that starts inside the facility.
// The ID is assigned by the store.
func NewResident(registerNo, name, roomNo, course string, now time.Time) (*Resident, error) {
	registerNo = strings.TrimSpace(registerNo)
	name = strings.TrimSpace(name)
	if name == "" || registerNo == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name and register number are required")
	}
	return &Resident{
		RegisterNo:    registerNo,
		Name:          name,
		RoomNo:        strings.TrimSpace(roomNo),
		Course:        strings.TrimSpace(course),
		CurrentStatus: StatusInFacility,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (r *Resident) Clone() *Resident {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastMovementID != nil {
		last := *r.LastMovementID
		c.LastMovementID = &last
	}
	return &c
}

// MatchesLogin reports whether name (case-insensitive) and register number
// identify this resident.
func (r *Resident) MatchesLogin(name, registerNo string) bool {
	return strings.EqualFold(strings.TrimSpace(name), r.Name) &&
		strings.TrimSpace(registerNo) == r.RegisterNo
}
