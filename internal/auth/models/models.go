package models

import (
	"strings"
	"time"

	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
)

// Role is what a bearer token lets its holder do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleWatchman Role = "watchman"
	RoleResident Role = "resident"
)

func (r Role) String() string {
	return string(r)
}

// LoginRequest is the staff (admin or watchman) login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	return nil
}

// ResidentLoginRequest identifies a resident by name and register number.
type ResidentLoginRequest struct {
	Name       string `json:"name"`
	RegisterNo string `json:"register_no"`
}

func (r *ResidentLoginRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RegisterNo = strings.TrimSpace(r.RegisterNo)
}

func (r *ResidentLoginRequest) Validate() error {
	if r.Name == "" || r.RegisterNo == "" {
		return dErrors.New(dErrors.CodeValidation, "name and register number are required")
	}
	return nil
}

// StaffProfile is the public part of a configured staff account.
type StaffProfile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// LoginResult carries the issued bearer token and who it was issued to.
// Exactly one of Staff and Resident is set.
type LoginResult struct {
	AccessToken string                  `json:"access_token"`
	TokenType   string                  `json:"token_type"`
	ExpiresAt   time.Time               `json:"expires_at"`
	Role        Role                    `json:"role"`
	ResidentID  id.ResidentID           `json:"resident_id,omitempty"`
	Staff       *StaffProfile           `json:"staff,omitempty"`
	Resident    *residentModel.Resident `json:"resident,omitempty"`
}
