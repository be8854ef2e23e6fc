// Package journal records coordinator lifecycle events in SQLite so the
// daemon can report what happened across restarts.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"swupdate/internal/updater"
	"swupdate/pkg/types"
)

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 100

// Store is a SQLite-backed event journal. It implements
// updater.EventPublisher.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time

	mu  sync.Mutex
	seq int64
}

var _ updater.EventPublisher = (*Store)(nil)

// Open opens (or creates) the journal at path. An empty path or ":memory:"
// keeps the journal in memory for the life of the process.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single connection keeps an in-memory journal alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s := &Store{db: db, log: log, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM updater_events`).Scan(&s.seq); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read journal sequence: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS updater_events (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			at INTEGER NOT NULL,
			name TEXT NOT NULL,
			worker_id TEXT NOT NULL DEFAULT '',
			fields TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_updater_events_seq ON updater_events(seq);
	`)
	return err
}

// Publish appends e. Failures are logged; Publish never panics.
func (s *Store) Publish(e updater.Event) {
	if err := s.Append(context.Background(), e); err != nil {
		s.log.Error().Err(err).Str("event", e.Name).Msg("journal append failed")
	}
}

// Append writes e to the journal.
func (s *Store) Append(ctx context.Context, e updater.Event) error {
	fields := ""
	if len(e.Fields) > 0 {
		b, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
		fields = string(b)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO updater_events (id, seq, at, name, worker_id, fields)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		s.seq,
		s.now().UnixMilli(),
		e.Name,
		e.WorkerID,
		fields,
	)
	if err != nil {
		s.seq--
	}
	return err
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.EventRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, name, worker_id, fields
		FROM updater_events
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.EventRecord{}
	for rows.Next() {
		var (
			rec    types.EventRecord
			fields string
		)
		if err := rows.Scan(&rec.ID, &rec.AtUnixMilli, &rec.Name, &rec.WorkerID, &fields); err != nil {
			return nil, err
		}
		if fields != "" {
			if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
				return nil, fmt.Errorf("decode fields of %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
