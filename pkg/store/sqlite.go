package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"

	"github.com/redquill/ferret/pkg/types"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store. Use ":memory:" for an in-memory
// database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddHit records one walk hit.
func (s *SQLiteStore) AddHit(e types.StatEntry) error {
	specJSON, err := json.Marshal(e.Spec)
	if err != nil {
		return fmt.Errorf("marshaling spec: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO hits (path, spec_json, mode, size, device)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.Spec.Collapse(),
		string(specJSON),
		uint32(e.Mode),
		e.Size,
		int64(e.Device),
	)
	if err != nil {
		return fmt.Errorf("inserting hit: %w", err)
	}
	return nil
}

// AddMatch records one grep match.
func (s *SQLiteStore) AddMatch(m *types.Match) error {
	specJSON, err := json.Marshal(m.Target)
	if err != nil {
		return fmt.Errorf("marshaling spec: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO matches (path, spec_json, match_offset, match_length, data)
		VALUES (?, ?, ?, ?, ?)
	`,
		m.Target.Collapse(),
		string(specJSON),
		m.Offset,
		m.Length,
		m.Data,
	)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// Hits returns all recorded walk hits in insertion order.
func (s *SQLiteStore) Hits() ([]types.StatEntry, error) {
	rows, err := s.db.Query(`
		SELECT spec_json, mode, size, device
		FROM hits
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying hits: %w", err)
	}
	defer rows.Close()

	var hits []types.StatEntry
	for rows.Next() {
		var e types.StatEntry
		var specJSON string
		var mode uint32
		var device int64

		if err := rows.Scan(&specJSON, &mode, &e.Size, &device); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		if err := json.Unmarshal([]byte(specJSON), &e.Spec); err != nil {
			return nil, fmt.Errorf("unmarshaling spec: %w", err)
		}
		e.Mode = fs.FileMode(mode)
		e.Device = uint64(device)

		hits = append(hits, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// Matches returns all recorded grep matches in insertion order.
func (s *SQLiteStore) Matches() ([]*types.Match, error) {
	rows, err := s.db.Query(`
		SELECT spec_json, match_offset, match_length, data
		FROM matches
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []*types.Match
	for rows.Next() {
		var m types.Match
		var specJSON string

		if err := rows.Scan(&specJSON, &m.Offset, &m.Length, &m.Data); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if err := json.Unmarshal([]byte(specJSON), &m.Target); err != nil {
			return nil, fmt.Errorf("unmarshaling spec: %w", err)
		}

		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
