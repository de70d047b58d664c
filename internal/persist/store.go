// Package persist provides durable snapshot storage for decision unit
// state, backed by SQLite.
//
// Persistence is push-model: Bind subscribes to a unit's state-change
// topic and writes a snapshot per evolved event. Nothing polls; a unit
// without a binding never touches the database.
package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for unit state snapshots.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Idempotent - safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Snapshot is one persisted unit state.
type Snapshot struct {
	Unit      string
	State     []byte
	Seq       int64
	UpdatedAt time.Time
}

// Save upserts the snapshot for a unit. Later writes win; seq records
// the logical time of the write for inspection, not for ordering
// decisions.
func (s *Store) Save(ctx context.Context, unit string, state []byte, seq int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (unit, state, seq, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(unit) DO UPDATE SET
			state = excluded.state,
			seq = excluded.seq,
			updated_at = excluded.updated_at
	`,
		unit,
		string(state),
		seq,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", unit, err)
	}
	return nil
}

// Load returns the snapshot for a unit, or found=false when no snapshot
// exists.
func (s *Store) Load(ctx context.Context, unit string) (snap Snapshot, found bool, err error) {
	var updatedAt string
	var state string
	row := s.db.QueryRowContext(ctx, `
		SELECT unit, state, seq, updated_at FROM snapshots WHERE unit = ?
	`, unit)
	if err := row.Scan(&snap.Unit, &state, &snap.Seq, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("load snapshot %q: %w", unit, err)
	}
	snap.State = []byte(state)
	snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot %q: parse updated_at: %w", unit, err)
	}
	return snap, true, nil
}

// Delete removes the snapshot for a unit. Deleting a missing snapshot
// is not an error.
func (s *Store) Delete(ctx context.Context, unit string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE unit = ?`, unit); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", unit, err)
	}
	return nil
}

// List returns all snapshots ordered by unit name.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit, state, seq, updated_at FROM snapshots ORDER BY unit
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var state, updatedAt string
		if err := rows.Scan(&snap.Unit, &state, &snap.Seq, &updatedAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snap.State = []byte(state)
		snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: parse updated_at: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}
