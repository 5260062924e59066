// Package domain holds identifier primitives shared across features.
// Parse functions are the trust boundary: anything that reaches a service as
// a ResidentID or MovementID has already been validated.
package domain

import (
	"strconv"
	"strings"

	dErrors "hostelgate/pkg/domain-errors"
)

// ResidentID identifies a resident in the directory. Assigned monotonically
// starting at 1.
type ResidentID int64

// MovementID identifies a movement in the ledger. Its order is the ledger
// order.
type MovementID int64

func (id ResidentID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsNil reports whether the id is the zero (unassigned) value.
func (id ResidentID) IsNil() bool { return id <= 0 }

func (id MovementID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsNil reports whether the id is the zero (unassigned) value.
func (id MovementID) IsNil() bool { return id <= 0 }

// ParseResidentID parses a positive decimal resident id.
func ParseResidentID(s string) (ResidentID, error) {
	n, err := parsePositive(s, "resident id")
	if err != nil {
		return 0, err
	}
	return ResidentID(n), nil
}

// ParseMovementID parses a positive decimal movement id.
func ParseMovementID(s string) (MovementID, error) {
	n, err := parsePositive(s, "movement id")
	if err != nil {
		return 0, err
	}
	return MovementID(n), nil
}

func parsePositive(s, name string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	if n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be positive")
	}
	return n, nil
}
