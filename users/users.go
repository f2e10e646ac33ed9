package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// User is a local account on the chat platform.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Blocked      bool
}

// Repo is the user persistence contract consumed by the login surfaces and
// the upstream-provider linking flow.
type Repo interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash verifies a plaintext password against a bcrypt hash.
// bcrypt is deliberately expensive; callers run this from a request goroutine
// so it never blocks other requests.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
