package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"
)

var tablePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLiteStore is a Storer backed by a single sqlite table. Like FileStore it
// caches every record in memory and writes through on Save.
type SQLiteStore[T ValidatingSpec] struct {
	db      *sql.DB
	table   string
	records map[string]T

	mu sync.RWMutex
}

func NewSQLiteStore[T ValidatingSpec](path string, table string) (*SQLiteStore[T], error) {
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	// sqlite only tolerates one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore[T]{
		db:      db,
		table:   table,
		records: map[string]T{},
	}

	_, err = db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		spec TEXT NOT NULL
	)`, table))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, version, spec FROM %s`, s.table))
	if err != nil {
		return fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var version uint
		var raw string
		if err := rows.Scan(&id, &version, &raw); err != nil {
			return fmt.Errorf("scanning %s: %w", s.table, err)
		}

		asset := &Asset[T]{Version: version, Identifier: id}
		if err := json.Unmarshal([]byte(raw), &asset.Spec); err != nil {
			return fmt.Errorf("unmarshalling %s: %w", id, err)
		}
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", id, err)
		}

		s.records[id] = asset.Spec
	}

	return rows.Err()
}

func (s *SQLiteStore[T]) Save(id string, o T) error {
	if !ValidIdentifier(id) || id == "" {
		return fmt.Errorf("invalid identifier %q", id)
	}

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = o

	_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO %s (id, version, spec) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, spec = excluded.spec`, s.table),
		id, CurrentVersion, string(data))
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", s.table, id, err)
	}

	return nil
}

func (s *SQLiteStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records[id]
}

func (s *SQLiteStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vals := make(map[string]T, len(s.records))
	for id, v := range s.records {
		vals[id] = v
	}

	return vals
}

func (s *SQLiteStore[T]) Close() error {
	return s.db.Close()
}
