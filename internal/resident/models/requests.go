package models

import (
	"strings"

	dErrors "hostelgate/pkg/domain-errors"
)

// CreateResidentRequest is the admin payload for adding a resident.
type CreateResidentRequest struct {
	Name       string `json:"name"`
	RegisterNo string `json:"register_no"`
	RoomNo     string `json:"room_no"`
	Course     string `json:"course"`
}

func (r *CreateResidentRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RegisterNo = strings.TrimSpace(r.RegisterNo)
	r.RoomNo = strings.TrimSpace(r.RoomNo)
	r.Course = strings.TrimSpace(r.Course)
}

func (r *CreateResidentRequest) Validate() error {
	if r.Name == "" || r.RegisterNo == "" {
		return dErrors.New(dErrors.CodeValidation, "name and register number are required")
	}
	return nil
}

// UpdateResidentRequest carries a partial profile update. Nil fields are left
// unchanged.
type UpdateResidentRequest struct {
	Name       *string `json:"name"`
	RegisterNo *string `json:"register_no"`
	RoomNo     *string `json:"room_no"`
	Course     *string `json:"course"`
}

func (r *UpdateResidentRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	if r.RegisterNo != nil && strings.TrimSpace(*r.RegisterNo) == "" {
		return dErrors.New(dErrors.CodeValidation, "register number cannot be empty")
	}
	return nil
}

// Apply copies the set fields onto res.
func (r *UpdateResidentRequest) Apply(res *Resident) {
	if r.Name != nil {
		res.Name = strings.TrimSpace(*r.Name)
	}
	if r.RegisterNo != nil {
		res.RegisterNo = strings.TrimSpace(*r.RegisterNo)
	}
	if r.RoomNo != nil {
		res.RoomNo = strings.TrimSpace(*r.RoomNo)
	}
	if r.Course != nil {
		res.Course = strings.TrimSpace(*r.Course)
	}
}
