package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/logger"
)

//go:embed migrations/001_scores.sql
var migrationSQL string

const pingTimeout = 5 * time.Second

// Dialect selects the SQL driver and placeholder style.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps records in SQLite or PostgreSQL.
type SQLStore struct {
	settings
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects, pings and migrates.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			// SQLite performs best with a single writer
			db.SetMaxOpenConns(1)
		}
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &SQLStore{settings: newSettings(opts), db: db, dialect: dialect}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Migrate creates the schema if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("running migration: %w", err)
	}
	s.logger.Info(ctx, "score store migrated", logger.String("dialect", string(s.dialect)))
	return nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) bind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Append stores rec. A duplicate mission id is ignored.
func (s *SQLStore) Append(ctx context.Context, rec model.ScoreRecord) error {
	rec = s.normalize(rec)
	_, err := s.db.ExecContext(ctx, s.bind(
		`INSERT INTO scores (id, mission_id, name, level, score, attempts, user_id, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`),
		rec.ID, rec.MissionID, rec.Name, string(rec.Level), rec.Score, rec.Attempts, rec.UserID, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// TopN returns the n best records.
func (s *SQLStore) TopN(ctx context.Context, n int) ([]model.ScoreRecord, error) {
	if err := validLimit(n); err != nil {
		return nil, err
	}
	return s.query(ctx,
		`SELECT id, mission_id, name, level, score, attempts, user_id, created_at_ms
		 FROM scores ORDER BY score DESC, created_at_ms ASC, id ASC LIMIT ?`, n)
}

// ByUser returns the n newest records of userID.
func (s *SQLStore) ByUser(ctx context.Context, userID string, n int) ([]model.ScoreRecord, error) {
	if err := validLimit(n); err != nil {
		return nil, err
	}
	return s.query(ctx,
		`SELECT id, mission_id, name, level, score, attempts, user_id, created_at_ms
		 FROM scores WHERE user_id = ? ORDER BY created_at_ms DESC, id ASC LIMIT ?`, userID, n)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var (
			rec       model.ScoreRecord
			level     string
			createdMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.MissionID, &rec.Name, &level, &rec.Score, &rec.Attempts, &rec.UserID, &createdMs); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		rec.Level = model.Level(level)
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return out, nil
}
