// Package store provides the local SQLite persistence layer for recordings.
//
// The store owns the synced flag: recordings are persisted unsynced, marked
// synced by the sync engine after confirmed delivery, and reset to unsynced
// on any local edit. The flag is store-internal bookkeeping and never appears
// on the public Recording value.
//
// The database runs in embedded mode (ncruces/go-sqlite3) with WAL enabled
// for concurrent reads. Writes are serialized through a single connection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-sqlite3"
	"github.com/voiceinbox/voiceinbox/internal/record"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// timeFormat is a fixed-width RFC 3339 variant so that lexicographic
// ordering on the created_at column matches chronological ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the SQLite connection for recording CRUD.
//
// A Store whose setup failed is still usable as a value: every operation
// deterministically returns ErrUnavailable.
type Store struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
}

// New opens (or creates) the recordings database at path and initializes
// the schema. Setup is idempotent - safe to run against an already
// initialized database.
//
// Setup failure does not return an error: the store enters a degraded
// state where every operation fails with ErrUnavailable. This keeps a
// broken disk from taking the whole process down with it.
//
// If logger is nil, a default logger writing to stderr is used.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	s := &Store{path: path, logger: logger}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Printf("Store setup failed: cannot create directory %s: %v", dir, err)
		return s
	}

	if err := s.setup("file:" + path); err != nil {
		logger.Printf("Store setup failed for %s: %v", path, err)
		s.conn = nil
		return s
	}

	return s
}

// NewMemory creates an in-memory store for testing. Behavior is identical
// to the persistent path; only the storage medium differs.
func NewMemory() *Store {
	s := &Store{path: ":memory:", logger: log.New(os.Stderr, "[store] ", log.LstdFlags)}
	if err := s.setup("file::memory:"); err != nil {
		s.logger.Printf("In-memory store setup failed: %v", err)
		s.conn = nil
	}
	return s
}

// setup opens the connection, applies pragmas, and creates the schema.
func (s *Store) setup(connStr string) error {
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Single-writer discipline: all statements share one connection.
	// An in-memory database additionally requires this so every query
	// sees the same database.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		audio_url TEXT,
		tag TEXT,
		pending INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_synced ON recordings(synced);
	CREATE INDEX IF NOT EXISTS idx_recordings_created ON recordings(created_at);
	`

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.conn = conn
	return nil
}

// Available reports whether the store completed setup and is usable.
func (s *Store) Available() bool {
	return s.conn != nil
}

// Close closes the database connection. Subsequent operations return
// ErrUnavailable.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Insert persists a new recording with synced=false.
//
// Returns ErrDuplicateID if a recording with the same id already exists,
// ErrUnavailable if the store has not completed setup.
func (s *Store) Insert(rec *record.Recording) error {
	return s.InsertContext(context.Background(), rec)
}

// InsertContext persists a new recording with context support.
func (s *Store) InsertContext(ctx context.Context, rec *record.Recording) error {
	if s.conn == nil {
		return ErrUnavailable
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid recording: %w", err)
	}

	_, err := s.conn.ExecContext(ctx, `
	INSERT INTO recordings (id, text, audio_url, tag, pending, created_at, synced)
	VALUES (?, ?, ?, ?, ?, ?, 0)`,
		rec.ID,
		rec.Text,
		nullable(rec.AudioPath),
		nullable(rec.Tag),
		rec.Pending,
		rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		// The primary key is the only constraint reachable here. Letting
		// the database detect the collision keeps insert atomic when the
		// daemon and CLI share the file.
		if errors.Is(err, sqlite3.CONSTRAINT) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to insert recording %s: %w", rec.ID, err)
	}

	return nil
}

// ListAll returns every recording ordered newest-first by creation time.
// An empty store yields an empty slice, not an error.
func (s *Store) ListAll() ([]*record.Recording, error) {
	return s.ListAllContext(context.Background())
}

// ListAllContext returns all recordings with context support.
func (s *Store) ListAllContext(ctx context.Context) ([]*record.Recording, error) {
	if s.conn == nil {
		return nil, ErrUnavailable
	}

	rows, err := s.conn.QueryContext(ctx, `
	SELECT id, text, audio_url, tag, pending, created_at
	FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	return scanRecordings(rows)
}

// ListUnsynced returns every recording with synced=false, in no
// particular order. These are the items eligible for the next push pass.
func (s *Store) ListUnsynced() ([]*record.Recording, error) {
	return s.ListUnsyncedContext(context.Background())
}

// ListUnsyncedContext returns unsynced recordings with context support.
func (s *Store) ListUnsyncedContext(ctx context.Context) ([]*record.Recording, error) {
	if s.conn == nil {
		return nil, ErrUnavailable
	}

	rows, err := s.conn.QueryContext(ctx, `
	SELECT id, text, audio_url, tag, pending, created_at
	FROM recordings WHERE synced = 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced recordings: %w", err)
	}
	defer rows.Close()

	return scanRecordings(rows)
}

// Get returns a single recording by id. Returns ErrNotFound if no such
// recording exists.
func (s *Store) Get(id string) (*record.Recording, error) {
	return s.GetContext(context.Background(), id)
}

// GetContext returns a single recording with context support.
func (s *Store) GetContext(ctx context.Context, id string) (*record.Recording, error) {
	if s.conn == nil {
		return nil, ErrUnavailable
	}

	row := s.conn.QueryRowContext(ctx, `
	SELECT id, text, audio_url, tag, pending, created_at
	FROM recordings WHERE id = ?`, id)

	rec, err := scanRecording(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording %s: %w", id, err)
	}
	return rec, nil
}

// MarkSynced sets synced=true for the given id.
//
// Idempotent: marking an already-synced recording is a no-op, not an
// error. Returns ErrNotFound if the id does not exist.
func (s *Store) MarkSynced(id string) error {
	return s.MarkSyncedContext(context.Background(), id)
}

// MarkSyncedContext marks a recording synced with context support.
func (s *Store) MarkSyncedContext(ctx context.Context, id string) error {
	if s.conn == nil {
		return ErrUnavailable
	}

	res, err := s.conn.ExecContext(ctx,
		`UPDATE recordings SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark recording %s synced: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Update applies the provided fields to a recording. Nil fields are left
// untouched. Any update resets synced=false - a local edit invalidates
// whatever the server has seen, even when the new values equal the old.
//
// A call with both fields nil is a complete no-op and does not touch the
// synced flag. Returns ErrNotFound if the id does not exist.
func (s *Store) Update(id string, tag *string, pending *bool) error {
	return s.UpdateContext(context.Background(), id, tag, pending)
}

// UpdateContext applies a partial update with context support.
func (s *Store) UpdateContext(ctx context.Context, id string, tag *string, pending *bool) error {
	if s.conn == nil {
		return ErrUnavailable
	}
	if tag == nil && pending == nil {
		return nil
	}

	var sets []string
	var args []any

	if tag != nil {
		sets = append(sets, "tag = ?")
		args = append(args, nullable(*tag))
	}
	if pending != nil {
		sets = append(sets, "pending = ?")
		args = append(args, *pending)
	}

	// Edited content must be pushed again.
	sets = append(sets, "synced = 0")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE recordings SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update recording %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Counts returns the total number of recordings and how many of them are
// still unsynced.
func (s *Store) Counts() (total, unsynced int, err error) {
	if s.conn == nil {
		return 0, 0, ErrUnavailable
	}

	row := s.conn.QueryRow(`
	SELECT COUNT(*), COALESCE(SUM(CASE WHEN synced = 0 THEN 1 ELSE 0 END), 0)
	FROM recordings`)
	if err := row.Scan(&total, &unsynced); err != nil {
		return 0, 0, fmt.Errorf("failed to count recordings: %w", err)
	}
	return total, unsynced, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecording.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecording reads one recording row.
func scanRecording(row scanner) (*record.Recording, error) {
	var (
		rec       record.Recording
		audio     sql.NullString
		tag       sql.NullString
		createdAt string
	)

	if err := row.Scan(&rec.ID, &rec.Text, &audio, &tag, &rec.Pending, &createdAt); err != nil {
		return nil, err
	}

	rec.AudioPath = audio.String
	rec.Tag = tag.String

	ts, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for %s: %w", rec.ID, err)
	}
	rec.CreatedAt = ts

	return &rec, nil
}

// scanRecordings drains a row set into a slice.
func scanRecordings(rows *sql.Rows) ([]*record.Recording, error) {
	recs := []*record.Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recordings: %w", err)
	}
	return recs, nil
}

// parseTime accepts both the store's fixed-width format and plain
// RFC 3339 (seen on rows imported from JSONL exports).
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(timeFormat, s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
