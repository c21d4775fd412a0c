package session

import (
	"context"

	"github.com/okian/heartrobot/internal/domain/model"
)

// State is the mission lifecycle state.
type State string

// Mission states. Finished is terminal.
const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateAwaiting State = "awaiting_next_puzzle"
	StateFinished State = "finished"
)

// FinishReason tells why a mission ended.
type FinishReason string

// Finish reasons.
const (
	ReasonCompleted     FinishReason = "completed"
	ReasonTimeUp        FinishReason = "time_up"
	ReasonOutOfAttempts FinishReason = "out_of_attempts"
	ReasonAbandoned     FinishReason = "abandoned"
)

// Player-facing messages.
const (
	MessageLoading          = "Loading puzzle..."
	MessageLivePuzzle       = "Count the hearts and carrots in the image."
	MessageFallbackPuzzle   = "Demo puzzle loaded. Count the hearts and carrots!"
	MessagePuzzleFailed     = "Failed to start a new puzzle. Please try again."
	MessageValidationFailed = "Could not validate your answer."
)

// Player identifies who plays a mission.
type Player struct {
	ID   string
	Name string
}

// PuzzleClient obtains puzzles and validates answers.
type PuzzleClient interface {
	RequestPuzzle(ctx context.Context, level model.Level) (model.PuzzleSession, error)
	ValidateAnswer(ctx context.Context, sessionID string, hearts, carrots int) (model.Verdict, error)
	Discard(ctx context.Context, sessionID string)
}

// HandoffStore receives the result summary at termination.
type HandoffStore interface {
	Write(ctx context.Context, summary model.ResultSummary) error
}

// Submitter persists a final score. Failures are logged only.
type Submitter interface {
	Submit(ctx context.Context, rec model.ScoreRecord) error
}

// Clock is the per-round countdown.
type Clock interface {
	Start(seconds int)
	Pause()
	Resume()
	Cancel()
}

// ClockFactory builds the mission clock with its callbacks.
type ClockFactory func(onTick func(remaining int), onExpire func()) Clock

// Deps are the collaborators of a Machine.
type Deps struct {
	Puzzles   PuzzleClient
	Handoff   HandoffStore
	Submitter Submitter
	Clock     ClockFactory
}

// Snapshot is an immutable view of a mission.
type Snapshot struct {
	MissionID string               `json:"mission_id"`
	State     State                `json:"state"`
	Run       model.GameRunState   `json:"run"`
	Puzzle    *model.PuzzleSession `json:"puzzle,omitempty"`
	Verdict   *model.Verdict       `json:"verdict,omitempty"`
	Message   string               `json:"message"`
	Error     string               `json:"error,omitempty"`
	Reason    FinishReason         `json:"reason,omitempty"`
	Version   uint64               `json:"version"`
}

// GuessOutcome is the result of one accepted guess.
type GuessOutcome struct {
	Verdict  model.Verdict `json:"verdict"`
	Message  string        `json:"message"`
	Snapshot Snapshot      `json:"snapshot"`
}
