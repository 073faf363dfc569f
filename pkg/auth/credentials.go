package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

var ErrCredentialMismatch = errors.New("credential mismatch")

// HashCredential hashes a plaintext admin password for storage.
func HashCredential(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareCredential checks a supplied password against the stored value.
// Stored values that look like bcrypt hashes are verified with bcrypt; legacy
// rows hold the plaintext password and are compared in constant time.
func CompareCredential(stored, supplied string) error {
	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err != nil {
			return ErrCredentialMismatch
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrCredentialMismatch
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
