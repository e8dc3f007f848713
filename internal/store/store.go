// Package store persists session transcripts to PostgreSQL. Persistence is
// optional; the service runs fine without a database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTranscriptsTable = `
CREATE TABLE IF NOT EXISTS transcripts (
	id         UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	command    TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const insertTranscript = `
INSERT INTO transcripts (id, session_id, command, response, created_at)
VALUES ($1, $2, $3, $4, $5)`

const selectTranscript = `
SELECT command, response, created_at
FROM transcripts
WHERE session_id = $1
ORDER BY created_at ASC`

// Entry is one recorded command/response pair.
type Entry struct {
	Command   string
	Response  string
	CreatedAt time.Time
}

// Store provides the PostgreSQL implementation of transcript persistence.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store, verifies the connection, and ensures the schema.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTranscriptsTable); err != nil {
		return nil, fmt.Errorf("failed to ensure transcripts table: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Record appends one command/response pair to the session's transcript.
func (s *Store) Record(ctx context.Context, sessionID, command, response string) error {
	_, err := s.pool.Exec(ctx, insertTranscript,
		uuid.New(), sessionID, command, response, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert transcript entry: %w", err)
	}
	return nil
}

// Transcript returns the session's recorded entries in chronological order.
func (s *Store) Transcript(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, selectTranscript, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Command, &e.Response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript rows: %w", err)
	}
	return entries, nil
}

// NopRecorder satisfies the recorder contract when no database is
// configured. Every call succeeds without doing anything.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string, string) error {
	return nil
}
