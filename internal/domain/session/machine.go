// Package session implements the mission state machine:
// Loading -> Active <-> AwaitingNextPuzzle -> Finished.
//
// All mutations are serialized by one mutex. Puzzle fetches run outside it
// and are applied only when their generation is still current. Termination
// happens at most once; the finished flag checked under the mutex is the
// only guard.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/scoring"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

const (
	defaultSettleDelay = 1100 * time.Millisecond
	subscriberBuffer   = 16
)

// Machine runs one mission.
type Machine struct {
	mu sync.Mutex

	id       string
	profile  model.DifficultyProfile
	deps     Deps
	player   Player
	settle   time.Duration
	onFinish func(Snapshot)
	logger   logger.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	state    State
	run      model.GameRunState
	puzzle   *model.PuzzleSession
	verdict  *model.Verdict
	message  string
	errMsg   string
	reason   FinishReason
	started  bool
	finished bool
	version  uint64

	// fetchGen invalidates in-flight puzzle requests.
	fetchGen uint64
	fetching bool
	// newRound is true when the next applied puzzle starts a round and
	// resets the clock; a replacement after a wrong guess keeps it running.
	newRound bool

	clock   Clock
	advance *time.Timer

	subs    map[int]chan Snapshot
	nextSub int
	done    chan struct{}
}

// New creates a mission in Loading. Call Start to fetch the first puzzle.
func New(profile model.DifficultyProfile, deps Deps, opts ...Option) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		id:       uuid.NewString(),
		profile:  profile,
		deps:     deps,
		settle:   defaultSettleDelay,
		logger:   logger.NewNop(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateLoading,
		message:  MessageLoading,
		newRound: true,
		subs:     make(map[int]chan Snapshot),
		done:     make(chan struct{}),
		run: model.GameRunState{
			Level:             profile,
			TimeRemaining:     profile.TimeLimitSeconds,
			AttemptsRemaining: profile.AttemptBudget,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.clock = deps.Clock(m.onTick, m.onExpire)
	return m
}

// ID returns the mission id.
func (m *Machine) ID() string { return m.id }

// Player returns who plays the mission.
func (m *Machine) Player() Player { return m.player }

// Done is closed after termination or abandonment.
func (m *Machine) Done() <-chan struct{} { return m.done }

// Start fetches the first puzzle. On failure the mission stays in Loading
// with an error message and Retry may be called.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()
	metrics.RecordMissionStarted(string(m.profile.Name))
	return m.load(ctx, StateLoading)
}

// Retry requests a puzzle again after a failed fetch.
func (m *Machine) Retry(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	return m.load(ctx, StateLoading)
}

func (m *Machine) load(ctx context.Context, from State) error {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return ErrFinished
	}
	if m.state != from {
		m.mu.Unlock()
		return ErrNotLoading
	}
	if m.fetching {
		m.mu.Unlock()
		return ErrBusy
	}
	gen := m.beginFetchLocked()
	m.state = StateLoading
	m.message = MessageLoading
	m.errMsg = ""
	m.publishLocked()
	m.mu.Unlock()

	p, err := m.deps.Puzzles.RequestPuzzle(ctx, m.profile.Name)
	return m.applyPuzzle(gen, p, err)
}

func (m *Machine) beginFetchLocked() uint64 {
	m.fetchGen++
	m.fetching = true
	return m.fetchGen
}

// applyPuzzle installs a fetched puzzle if the request is still current.
func (m *Machine) applyPuzzle(gen uint64, p model.PuzzleSession, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished || gen != m.fetchGen {
		if err == nil {
			m.deps.Puzzles.Discard(m.ctx, p.SessionID)
		}
		return ErrFinished
	}
	m.fetching = false

	if err != nil {
		m.logger.Warn(m.ctx, "puzzle request failed", logger.String("mission", m.id), logger.Error(err))
		m.clock.Pause()
		m.state = StateLoading
		m.puzzle = nil
		m.errMsg = MessagePuzzleFailed
		m.message = MessagePuzzleFailed
		m.publishLocked()
		return err
	}

	m.puzzle = &p
	m.state = StateActive
	m.errMsg = ""
	m.message = MessageLivePuzzle
	if p.Source == model.SourceFallback {
		m.message = MessageFallbackPuzzle
	}
	if m.newRound {
		m.newRound = false
		m.run.TimeRemaining = m.profile.TimeLimitSeconds
		m.clock.Start(m.profile.TimeLimitSeconds)
	} else {
		m.clock.Resume()
	}
	m.publishLocked()
	return nil
}

// Guess submits counts for the current puzzle. Non-numeric input fails with
// ErrInvalidInput before validation. A validation failure such as an
// already consumed puzzle is returned but leaves the mission running.
func (m *Machine) Guess(ctx context.Context, heartRaw, carrotRaw string) (GuessOutcome, error) {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return GuessOutcome{}, ErrFinished
	}
	if m.state != StateActive || m.puzzle == nil {
		m.mu.Unlock()
		return GuessOutcome{}, ErrNotActive
	}

	hearts, herr := scoring.ParseGuess(heartRaw)
	carrots, cerr := scoring.ParseGuess(carrotRaw)
	if herr != nil || cerr != nil {
		m.message = scoring.MessageInvalidInput
		m.publishLocked()
		out := GuessOutcome{Message: m.message, Snapshot: m.snapshotLocked()}
		m.mu.Unlock()
		metrics.RecordGuess("invalid")
		return out, ErrInvalidInput
	}

	v, err := m.deps.Puzzles.ValidateAnswer(ctx, m.puzzle.SessionID, hearts, carrots)
	if err != nil {
		m.message = MessageValidationFailed
		m.publishLocked()
		out := GuessOutcome{Message: m.message, Snapshot: m.snapshotLocked()}
		m.mu.Unlock()
		metrics.RecordGuess("expired")
		return out, fmt.Errorf("validate answer: %w", err)
	}

	m.verdict = &v
	m.message = scoring.Feedback(v)
	recordVerdict(v)

	if v.Correct {
		return m.onCorrectLocked(v)
	}
	return m.onWrongLocked(v)
}

func recordVerdict(v model.Verdict) {
	switch {
	case v.Correct:
		metrics.RecordGuess("correct")
	case v.HeartCorrect || v.CarrotCorrect:
		metrics.RecordGuess("partial")
	default:
		metrics.RecordGuess("wrong")
	}
}

// onCorrectLocked is entered with m.mu held and releases it.
func (m *Machine) onCorrectLocked(v model.Verdict) (GuessOutcome, error) {
	m.run.PuzzlesCleared++
	m.run.TotalScore += v.Score
	m.clock.Pause()
	m.puzzle = nil

	if m.run.PuzzlesCleared >= m.profile.PuzzlesRequired {
		after := m.finishLocked(ReasonCompleted)
		out := GuessOutcome{Verdict: v, Message: m.message, Snapshot: m.snapshotLocked()}
		m.mu.Unlock()
		after()
		return out, nil
	}

	m.state = StateAwaiting
	m.newRound = true
	m.advance = time.AfterFunc(m.settle, m.nextRound)
	m.publishLocked()
	out := GuessOutcome{Verdict: v, Message: m.message, Snapshot: m.snapshotLocked()}
	m.mu.Unlock()
	return out, nil
}

// onWrongLocked is entered with m.mu held and releases it. The consumed
// puzzle is replaced before returning so the next guess has a live secret.
func (m *Machine) onWrongLocked(v model.Verdict) (GuessOutcome, error) {
	m.run.AttemptsRemaining--
	if m.run.AttemptsRemaining <= 0 {
		m.run.AttemptsRemaining = 0
		after := m.finishLocked(ReasonOutOfAttempts)
		out := GuessOutcome{Verdict: v, Message: m.message, Snapshot: m.snapshotLocked()}
		m.mu.Unlock()
		after()
		return out, nil
	}

	gen := m.beginFetchLocked()
	message := m.message
	m.publishLocked()
	m.mu.Unlock()

	p, err := m.deps.Puzzles.RequestPuzzle(m.ctx, m.profile.Name)
	if aerr := m.applyPuzzle(gen, p, err); aerr == nil {
		m.mu.Lock()
		m.message = message
		m.publishLocked()
		m.mu.Unlock()
	}
	return GuessOutcome{Verdict: v, Message: message, Snapshot: m.Snapshot()}, nil
}

// nextRound runs after the settle delay.
func (m *Machine) nextRound() {
	if err := m.load(m.ctx, StateAwaiting); err != nil && !errors.Is(err, ErrFinished) {
		m.logger.Debug(m.ctx, "next round not loaded", logger.String("mission", m.id), logger.Error(err))
	}
}

func (m *Machine) onTick(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished || m.state != StateActive {
		return
	}
	m.run.TimeRemaining = remaining
	m.publishLocked()
}

func (m *Machine) onExpire() {
	m.mu.Lock()
	if m.finished || m.state != StateActive {
		m.mu.Unlock()
		return
	}
	m.run.TimeRemaining = 0
	after := m.finishLocked(ReasonTimeUp)
	m.mu.Unlock()
	after()
}

// finishLocked moves to Finished and returns the side effects to run once
// the mutex is released: hand off the summary, submit the score, publish
// the final snapshot, notify the caller.
func (m *Machine) finishLocked(reason FinishReason) func() {
	m.finished = true
	m.run.Finished = true
	m.state = StateFinished
	m.reason = reason
	m.stopTimersLocked()
	if m.puzzle != nil {
		m.deps.Puzzles.Discard(m.ctx, m.puzzle.SessionID)
		m.puzzle = nil
	}

	now := m.now()
	summary := model.ResultSummary{
		MissionID:       m.id,
		Score:           m.run.TotalScore,
		PuzzlesCleared:  m.run.PuzzlesCleared,
		Level:           m.profile.Name,
		TimestampMillis: now.UnixMilli(),
	}
	record := model.ScoreRecord{
		MissionID: m.id,
		Name:      m.player.Name,
		Level:     m.profile.Name,
		Score:     m.run.TotalScore,
		Attempts:  m.run.PuzzlesCleared,
		UserID:    m.player.ID,
		CreatedAt: now,
	}
	metrics.RecordMissionFinished(string(m.profile.Name), string(reason), m.run.TotalScore)
	m.logger.Info(m.ctx, "mission finished",
		logger.String("mission", m.id),
		logger.String("reason", string(reason)),
		logger.Int("score", m.run.TotalScore),
		logger.Int("cleared", m.run.PuzzlesCleared),
	)

	return func() {
		ctx := context.Background()
		if m.deps.Handoff != nil {
			if err := m.deps.Handoff.Write(ctx, summary); err != nil {
				m.logger.Error(ctx, "result handoff failed", logger.String("mission", m.id), logger.Error(err))
			}
		}
		if m.deps.Submitter != nil {
			if err := m.deps.Submitter.Submit(ctx, record); err != nil {
				m.logger.Error(ctx, "score submission failed", logger.String("mission", m.id), logger.Error(err))
			}
		}

		m.mu.Lock()
		m.publishLocked()
		snap := m.snapshotLocked()
		m.closeSubscribersLocked()
		m.mu.Unlock()

		if m.onFinish != nil {
			m.onFinish(snap)
		}
		close(m.done)
	}
}

func (m *Machine) stopTimersLocked() {
	m.clock.Cancel()
	if m.advance != nil {
		m.advance.Stop()
		m.advance = nil
	}
	m.fetchGen++
	m.fetching = false
	m.cancel()
}

// Abandon ends the mission without handing off a result or submitting a
// score. Pending ticks, advances and fetches become no-ops.
func (m *Machine) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return
	}
	m.finished = true
	m.run.Finished = true
	m.state = StateFinished
	m.reason = ReasonAbandoned
	m.stopTimersLocked()
	if m.puzzle != nil {
		m.deps.Puzzles.Discard(context.Background(), m.puzzle.SessionID)
		m.puzzle = nil
	}
	metrics.RecordMissionFinished(string(m.profile.Name), string(ReasonAbandoned), m.run.TotalScore)
	m.publishLocked()
	m.closeSubscribersLocked()
	close(m.done)
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		MissionID: m.id,
		State:     m.state,
		Run:       m.run,
		Message:   m.message,
		Error:     m.errMsg,
		Reason:    m.reason,
		Version:   m.version,
	}
	if m.puzzle != nil {
		p := *m.puzzle
		s.Puzzle = &p
	}
	if m.verdict != nil {
		v := *m.verdict
		s.Verdict = &v
	}
	return s
}

// Subscribe streams snapshots on every change, starting with the current
// one. Slow consumers miss intermediate snapshots but always see the latest.
// The channel is closed when the mission ends; cancel detaches early.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- m.snapshotLocked()
	if m.finished && m.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

func (m *Machine) publishLocked() {
	m.version++
	if len(m.subs) == 0 {
		return
	}
	s := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (m *Machine) closeSubscribersLocked() {
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	m.subs = nil
}
