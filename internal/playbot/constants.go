package playbot

import "time"

// Defaults applied to a zero Config.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultPlayers      = 10
	DefaultWorkers      = 4
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultMaxGuess     = 10

	maxRetries     = 3
	maxPolls       = 600
	botPassword    = "playbot-secret"
	percentageBase = 100
)
