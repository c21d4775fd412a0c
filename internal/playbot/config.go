// Package playbot drives the mission API with simulated players and checks
// that the resulting scoreboard is consistent.
package playbot

import "time"

// Config holds configuration for a playbot run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Players      int           // Number of simulated players
	Level        string        // Difficulty each player picks
	Workers      int           // Players playing at the same time
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Wait between polls while a puzzle loads
	MaxGuess     int           // Guesses are drawn from 0..MaxGuess
	LogFile      string        // Log file for run output
	Verbose      bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	PlayersRegistered int
	MissionsFinished  int
	MissionsFailed    int
	Guesses           int
	CorrectGuesses    int
	Retries           int
	ScoreboardRows    int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// Result is the outcome of one simulated player.
type Result struct {
	Name       string
	Token      string
	MissionID  string
	FinalScore int
	Reason     string
	Guesses    int
	Correct    int
	Retries    int
}
