package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrMissionNotFound = errors.New("mission not found")
	ErrNotYourMission  = errors.New("mission belongs to another player")
	ErrSignInRequired  = errors.New("sign in required")
	// ErrScoreSubmission wraps a failure to queue a final score. It is
	// logged and counted, never shown to the player.
	ErrScoreSubmission = errors.New("score submission failed")
	ErrUnknownFilter   = errors.New("unknown scoreboard filter")
)
