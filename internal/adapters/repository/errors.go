package repository

import "errors"

// Sentinel errors for score stores.
var (
	ErrInvalidLimit   = errors.New("invalid score limit")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrClosed         = errors.New("store closed")
)
