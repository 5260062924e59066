package models

import (
	"strings"
	"time"

	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
)

// Kind is the direction of a gate movement.
type Kind string

const (
	KindEnter Kind = "ENTER"
	KindExit  Kind = "EXIT"
)

// Default status labels recorded when the gate terminal sends none.
const (
	StatusEntered = "Entered"
	StatusExited  = "Exited"
)

func (k Kind) IsValid() bool {
	return k == KindEnter || k == KindExit
}

func (k Kind) String() string {
	return string(k)
}

// DefaultStatus is the label recorded for k when the caller provides none.
func (k Kind) DefaultStatus() string {
	if k == KindExit {
		return StatusExited
	}
	return StatusEntered
}

// ParseKind accepts ENTER/EXIT and the gate terminal spellings entry/exit,
// case-insensitively.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ENTER", "ENTRY":
		return KindEnter, nil
	case "EXIT":
		return KindExit, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidKind, "movement type must be entry or exit")
}

// Movement is one immutable ledger record.
type Movement struct {
	ID         id.MovementID `json:"id"`
	ResidentID id.ResidentID `json:"resident_id"`
	Kind       Kind          `json:"kind"`
	Timestamp  time.Time     `json:"timestamp"`
	Status     string        `json:"status"`
	Remarks    string        `json:"remarks,omitempty"`
}

// NextStatus is the movement state machine. EXIT is only accepted from inside
// the facility and ENTER only from outside; anything else is redundant.
func NextStatus(current residentModel.Status, kind Kind) (residentModel.Status, error) {
	switch kind {
	case KindExit:
		if current == residentModel.StatusInFacility {
			return residentModel.StatusOutside, nil
		}
		return "", dErrors.New(dErrors.CodeRedundantMovement, "resident is already outside")
	case KindEnter:
		if current == residentModel.StatusOutside {
			return residentModel.StatusInFacility, nil
		}
		return "", dErrors.New(dErrors.CodeRedundantMovement, "resident is already inside")
	default:
		return "", dErrors.New(dErrors.CodeInvalidKind, "movement type must be entry or exit")
	}
}

// StatusAfter is the status a resident holds right after a movement of kind.
func StatusAfter(kind Kind) residentModel.Status {
	if kind == KindExit {
		return residentModel.StatusOutside
	}
	return residentModel.StatusInFacility
}

// FoldStatus replays movements (ascending by id) into the status they imply.
// A resident with no movements is inside.
func FoldStatus(movements []*Movement) residentModel.Status {
	status := residentModel.StatusInFacility
	for _, m := range movements {
		status = StatusAfter(m.Kind)
	}
	return status
}
