package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotConfigured      = errors.New("password login is not configured")
)

// PasswordAuthenticator checks a single operator account whose bcrypt hash
// comes from configuration. The relay has no user database.
type PasswordAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewPasswordAuthenticator creates an authenticator for username with the given bcrypt hash.
func NewPasswordAuthenticator(username, passwordHash string) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Authenticate verifies username and password.
func (a *PasswordAuthenticator) Authenticate(_ context.Context, username, credential string) (*Principal, error) {
	if len(a.passwordHash) == 0 {
		return nil, ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// Always run bcrypt so timing does not reveal whether the username matched
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(credential))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	return &Principal{Subject: a.username}, nil
}

// HashPassword returns the bcrypt hash of password for use in configuration.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
