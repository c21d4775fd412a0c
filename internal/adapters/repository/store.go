// Package repository persists score records and answers the two scoreboard
// queries: best scores overall and a player's latest scores.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/logger"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultPlayerName is stored when a record carries no name.
const DefaultPlayerName = "Heart Robot Player"

// Store provides append-only access to score records.
type Store interface {
	// Append stores rec. ID and CreatedAt are filled when empty. A record
	// whose MissionID is already stored is ignored.
	Append(ctx context.Context, rec model.ScoreRecord) error
	// TopN returns up to n records by score descending.
	TopN(ctx context.Context, n int) ([]model.ScoreRecord, error)
	// ByUser returns up to n records of userID, newest first.
	ByUser(ctx context.Context, userID string, n int) ([]model.ScoreRecord, error)
	// Close releases resources.
	Close() error
}

// Open builds the store for backend. dsn is ignored by the memory backend.
func Open(ctx context.Context, backend, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemoryStore(opts...), nil
	case BackendSQLite:
		return OpenSQL(ctx, DialectSQLite, dsn, opts...)
	case BackendPostgres:
		return OpenSQL(ctx, DialectPostgres, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// normalize applies the defaults of a stored record.
func (s settings) normalize(rec model.ScoreRecord) model.ScoreRecord {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = DefaultPlayerName
	}
	if rec.Level == "" {
		rec.Level = model.LevelEasy
	}
	if rec.Score < 0 {
		rec.Score = 0
	}
	if rec.Attempts < 0 {
		rec.Attempts = 0
	}
	return rec
}

func validLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	return nil
}
