package domain

import (
	"github.com/google/uuid"

	dErrors "tenantgate/pkg/domain-errors"
)

// Typed UUID wrappers keep user and application identifiers from being mixed
// up at compile time. Parse helpers enforce the trust-boundary invariant that
// an ID is a valid, non-nil UUID.

type UserID uuid.UUID

type ApplicationID uuid.UUID

func NewUserID() UserID { return UserID(uuid.New()) }

func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ApplicationID) String() string { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IDs marshal as canonical UUID strings in JSON and text contexts. Unlike
// the Parse helpers these round-trip the nil UUID, which legitimately appears
// in undecided records.

func (id UserID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id ApplicationID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ApplicationID(parsed)
	return nil
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s, "user id")
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseApplicationID parses an application ID from its string form.
func ParseApplicationID(s string) (ApplicationID, error) {
	parsed, err := parseUUID(s, "application id")
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(parsed), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be the nil UUID")
	}
	return parsed, nil
}
