// Package store persists generated tank behaviors per agent slot so battles
// can be re-run and regenerations audited.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tankforge/internal/generator"
	"tankforge/internal/logging"
)

// BehaviorStore is a SQLite-backed map of agent slot -> TankBehavior.
// The generation orchestrator is the sole writer on success; the UI layer
// is free to read at any time.
type BehaviorStore struct {
	db *sql.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS behaviors (
	slot        INTEGER PRIMARY KEY,
	id          TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	code        TEXT NOT NULL,
	valid       INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Open opens (creating if needed) the behavior database at path.
func Open(path string) (*BehaviorStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open behavior store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init behavior store schema: %w", err)
	}
	logging.Store("behavior store opened at %s", path)
	return &BehaviorStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BehaviorStore) Close() error {
	return s.db.Close()
}

// Save replaces the behavior bound to a slot wholesale.
func (s *BehaviorStore) Save(slot int, b *generator.TankBehavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := 0
	if b.IsValid {
		valid = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO behaviors (slot, id, strategy, code, valid, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			strategy = excluded.strategy,
			code = excluded.code,
			valid = excluded.valid,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		slot, b.ID, b.StrategyText, b.Code, valid, b.Error,
		b.CreatedAt.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save behavior for slot %d: %w", slot, err)
	}
	logging.StoreDebug("saved behavior %s to slot %d (valid=%v)", b.ID, slot, b.IsValid)
	return nil
}

// Load returns the behavior bound to a slot, or nil when the slot is empty.
func (s *BehaviorStore) Load(slot int) (*generator.TankBehavior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, strategy, code, valid, error, created_at
		FROM behaviors WHERE slot = ?`, slot)

	var b generator.TankBehavior
	var valid int
	var createdAt string
	err := row.Scan(&b.ID, &b.StrategyText, &b.Code, &valid, &b.Error, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load behavior for slot %d: %w", slot, err)
	}
	b.IsValid = valid != 0
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &b, nil
}

// LoadAll returns all stored behaviors keyed by slot.
func (s *BehaviorStore) LoadAll() (map[int]*generator.TankBehavior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT slot, id, strategy, code, valid, error, created_at
		FROM behaviors ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("load behaviors: %w", err)
	}
	defer rows.Close()

	out := make(map[int]*generator.TankBehavior)
	for rows.Next() {
		var slot, valid int
		var createdAt string
		var b generator.TankBehavior
		if err := rows.Scan(&slot, &b.ID, &b.StrategyText, &b.Code, &valid, &b.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan behavior row: %w", err)
		}
		b.IsValid = valid != 0
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out[slot] = &b
	}
	return out, rows.Err()
}

// Delete removes the behavior bound to a slot.
func (s *BehaviorStore) Delete(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM behaviors WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("delete behavior for slot %d: %w", slot, err)
	}
	return nil
}
