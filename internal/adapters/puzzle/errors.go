package puzzle

import "errors"

// Sentinel errors returned by the puzzle client and providers.
var (
	// ErrPuzzleUnavailable means no puzzle could be obtained: the provider
	// failed, timed out or answered with a malformed payload.
	ErrPuzzleUnavailable = errors.New("puzzle unavailable")
	// ErrSessionExpired means the session id has no stored solution, either
	// because it was already validated or because it never existed.
	ErrSessionExpired = errors.New("puzzle session expired")

	ErrMalformedPayload = errors.New("malformed puzzle payload")
	ErrUnexpectedStatus = errors.New("unexpected provider status")
	ErrEmptyBank        = errors.New("puzzle bank is empty")
)
