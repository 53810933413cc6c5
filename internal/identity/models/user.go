package models

import (
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

// User is an account that can authenticate and submit applications.
//
// Invariants:
//   - Name and Email are non-empty; Email contains an '@'
//   - Role is either user or admin
//   - Email is unique across users (enforced by the store)
//   - ID and CreatedAt are immutable after construction
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         id.Role   `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUser(userID id.UserID, name, email, passwordHash string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is not valid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}

	return &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         id.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ProfileUpdate carries the mutable profile fields. Email and role are not
// updatable through the profile surface.
type ProfileUpdate struct {
	Name      string
	Phone     string
	Address   string
	AvatarURL string
}

// ApplyProfileUpdate validates and applies a profile update.
func (u *User) ApplyProfileUpdate(update ProfileUpdate, now time.Time) error {
	name := strings.TrimSpace(update.Name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	u.Name = name
	u.Phone = strings.TrimSpace(update.Phone)
	u.Address = strings.TrimSpace(update.Address)
	u.AvatarURL = strings.TrimSpace(update.AvatarURL)
	u.UpdatedAt = now
	return nil
}
