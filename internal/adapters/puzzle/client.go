// Package puzzle obtains heart/carrot puzzles from a provider and validates
// answers against solutions that never leave the server.
package puzzle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/scoring"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

const defaultTimeout = 5 * time.Second

// Secrets stores solutions until they are consumed.
type Secrets interface {
	Put(ctx context.Context, id string, solution model.Solution) error
	Take(ctx context.Context, id string) (model.Solution, bool)
	Delete(ctx context.Context, id string)
}

// Client hands out puzzles and validates answers exactly once per puzzle.
type Client struct {
	live     Provider
	fallback Provider
	secrets  Secrets
	timeout  time.Duration
	newID    func() string
	logger   logger.Logger
}

// NewClient creates a client over the live provider.
func NewClient(live Provider, secrets Secrets, opts ...Option) *Client {
	c := &Client{
		live:    live,
		secrets: secrets,
		timeout: defaultTimeout,
		newID:   uuid.NewString,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestPuzzle fetches a new puzzle for level and stores its solution.
// It fails with ErrPuzzleUnavailable when neither provider yields a puzzle.
func (c *Client) RequestPuzzle(ctx context.Context, level model.Level) (model.PuzzleSession, error) {
	payload, source, err := c.fetch(ctx)
	if err != nil {
		return model.PuzzleSession{}, err
	}

	id := c.newID()
	if err := c.secrets.Put(ctx, id, model.Solution{Hearts: payload.Solution, Carrots: payload.Carrots}); err != nil {
		return model.PuzzleSession{}, fmt.Errorf("%w: store solution: %w", ErrPuzzleUnavailable, err)
	}
	return model.PuzzleSession{
		SessionID: id,
		ImageRef:  payload.Question,
		Source:    source,
		Level:     level,
	}, nil
}

func (c *Client) fetch(ctx context.Context) (Payload, model.PuzzleSource, error) {
	payload, err := c.fetchFrom(ctx, c.live)
	if err == nil {
		return payload, c.live.Source(), nil
	}
	c.logger.Warn(ctx, "puzzle provider failed", logger.String("source", string(c.live.Source())), logger.Error(err))

	if c.fallback == nil {
		return Payload{}, "", fmt.Errorf("%w: %w", ErrPuzzleUnavailable, err)
	}
	payload, ferr := c.fetchFrom(ctx, c.fallback)
	if ferr != nil {
		c.logger.Error(ctx, "fallback puzzle provider failed", logger.Error(ferr))
		return Payload{}, "", fmt.Errorf("%w: %w", ErrPuzzleUnavailable, ferr)
	}
	return payload, c.fallback.Source(), nil
}

func (c *Client) fetchFrom(ctx context.Context, p Provider) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	payload, err := p.Fetch(ctx)
	latency := float64(time.Since(start).Milliseconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordPuzzleFetch(string(p.Source()), result, latency)
	return payload, err
}

// ValidateAnswer scores a guess and consumes the puzzle. A second call for the
// same session id fails with ErrSessionExpired.
func (c *Client) ValidateAnswer(ctx context.Context, sessionID string, hearts, carrots int) (model.Verdict, error) {
	solution, ok := c.secrets.Take(ctx, sessionID)
	if !ok {
		return model.Verdict{}, ErrSessionExpired
	}
	return scoring.Evaluate(solution, hearts, carrots), nil
}

// Discard drops an unconsumed puzzle.
func (c *Client) Discard(ctx context.Context, sessionID string) {
	c.secrets.Delete(ctx, sessionID)
}
