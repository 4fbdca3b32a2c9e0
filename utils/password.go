package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt ignores input beyond 72 bytes.
const (
	MinPasswordLen = 6
	MaxPasswordLen = 72
)

// ErrPasswordLength is returned for passwords outside the accepted bounds.
var ErrPasswordLength = errors.New("password must be between 6 and 72 bytes")

// HashPassword returns the bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return "", ErrPasswordLength
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares the bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
