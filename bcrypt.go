package gqlauth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost trades login latency for brute-force resistance.
const passwordHashCost = 14

// HashPassword derives a bcrypt hash for storage. Empty passwords are
// rejected before hashing.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// ComparePasswordAndHash checks a cleartext password against a stored
// hash. A mismatch returns ErrMismatchedHashAndPassword.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash returns the hash of a throwaway random password. The
// login path compares against it when no account (or no stored hash)
// matches the identifier, so both outcomes cost one bcrypt comparison.
func RandomPasswordHash() string {
	for {
		h, err := HashPassword(uuid.NewString())
		if err == nil {
			return h
		}
	}
}
