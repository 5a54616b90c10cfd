package auth

import "context"

// Principal identifies an authenticated caller.
type Principal struct {
	Subject string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the credentials and returns the principal if successful.
	Authenticate(ctx context.Context, username, credential string) (*Principal, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
