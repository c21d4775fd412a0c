package kv

import "errors"

// Sentinel errors for local key-value stores.
var (
	ErrEmptyKey = errors.New("empty key")
)
