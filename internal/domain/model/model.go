// Package model contains domain models passed between layers.
package model

import "time"

// Level names a difficulty profile.
type Level string

// Known difficulty levels.
const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

// DifficultyProfile holds the fixed parameters of one difficulty level.
type DifficultyProfile struct {
	Name             Level `json:"name"`
	TimeLimitSeconds int   `json:"time_limit_seconds"`
	AttemptBudget    int   `json:"attempt_budget"`
	PuzzlesRequired  int   `json:"puzzles_required"`
}

// PuzzleSource tells where a puzzle came from.
type PuzzleSource string

// Puzzle sources.
const (
	SourceLive     PuzzleSource = "live"
	SourceFallback PuzzleSource = "fallback"
)

// PuzzleSession is the public view of a pending puzzle. The solution is held
// by the secret store until a single validation consumes it.
type PuzzleSession struct {
	SessionID string       `json:"session_id"`
	ImageRef  string       `json:"image_ref"`
	Source    PuzzleSource `json:"source"`
	Level     Level        `json:"level"`
}

// Solution is the hidden answer of a puzzle.
type Solution struct {
	Hearts  int
	Carrots int
}

// Verdict is the outcome of validating one guess.
type Verdict struct {
	HeartCorrect  bool `json:"heart_correct"`
	CarrotCorrect bool `json:"carrot_correct"`
	Correct       bool `json:"correct"`
	Score         int  `json:"score"`
}

// GameRunState is the mutable state of one mission.
type GameRunState struct {
	Level             DifficultyProfile `json:"level"`
	TimeRemaining     int               `json:"time_remaining"`
	AttemptsRemaining int               `json:"attempts_remaining"`
	PuzzlesCleared    int               `json:"puzzles_cleared"`
	TotalScore        int               `json:"total_score"`
	Finished          bool              `json:"finished"`
}

// ResultSummary is written once at mission end and read once by the scoreboard.
type ResultSummary struct {
	MissionID       string `json:"mission_id"`
	Score           int    `json:"score"`
	PuzzlesCleared  int    `json:"puzzles_cleared"`
	Level           Level  `json:"level"`
	TimestampMillis int64  `json:"timestamp_millis"`
}

// ScoreRecord is one persisted score submission.
type ScoreRecord struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id,omitempty"`
	Name      string    `json:"name"`
	Level     Level     `json:"level"`
	Score     int       `json:"score"`
	Attempts  int       `json:"attempts"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LocalResult is a finished mission known locally but possibly not yet persisted.
type LocalResult struct {
	MissionID       string `json:"mission_id,omitempty"`
	Name            string `json:"name"`
	Level           Level  `json:"level"`
	Score           int    `json:"score"`
	Attempts        int    `json:"attempts"`
	TimestampMillis int64  `json:"timestamp_millis"`
}

// AggregatedScoreRow is one ranked (player, level) standing. It is recomputed
// on every aggregation and never persisted.
type AggregatedScoreRow struct {
	PlayerName        string    `json:"player_name"`
	Level             Level     `json:"level"`
	TotalScore        int       `json:"total_score"`
	TotalAttempts     int       `json:"total_attempts"`
	CarrotsDerived    int       `json:"carrots"`
	HeartsDerived     int       `json:"hearts"`
	Rank              int       `json:"rank"`
	LastPlayed        time.Time `json:"last_played"`
	LastPlayedDisplay string    `json:"last_played_display"`
}

// User is a signed-in player.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
