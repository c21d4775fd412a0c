package session

import "errors"

// Guard errors returned by Machine operations.
var (
	ErrFinished       = errors.New("mission finished")
	ErrNotActive      = errors.New("mission is not accepting guesses")
	ErrNotLoading     = errors.New("mission is not waiting for a puzzle")
	ErrAlreadyStarted = errors.New("mission already started")
	ErrBusy           = errors.New("puzzle request already in flight")
	// ErrInvalidInput means a guess was not numeric. No attempt is consumed.
	ErrInvalidInput = errors.New("invalid guess")
)
