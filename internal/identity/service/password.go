package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "tenantgate/pkg/domain-errors"
)

const minPasswordLength = 8

// hashPassword validates the password policy and returns a bcrypt hash.
func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", dErrors.Newf(dErrors.CodeValidation,
			"password must be at least %d characters long", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// verifyPassword checks a plaintext password against a stored bcrypt hash.
func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
