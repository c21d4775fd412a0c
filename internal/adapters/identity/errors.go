package identity

import "errors"

// Sentinel errors returned by providers.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrInvalidInput       = errors.New("invalid registration details")
)
