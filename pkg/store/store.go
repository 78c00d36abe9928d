package store

import (
	"fmt"

	"github.com/redquill/ferret/pkg/types"
)

// Store persists search results so long collection runs can be inspected
// after the fact. Implementations must be safe for concurrent use.
type Store interface {
	// AddHit records one walk hit.
	AddHit(e types.StatEntry) error

	// AddMatch records one grep match.
	AddMatch(m *types.Match) error

	// Hits returns all recorded walk hits in insertion order.
	Hits() ([]types.StatEntry, error)

	// Matches returns all recorded grep matches in insertion order.
	Matches() ([]*types.Match, error)

	// Close releases the backing resources.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path. Use ":memory:" for an in-memory
	// database (useful for testing).
	Path string
}

// New creates a SQLite-backed Store at the configured path.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return NewSQLite(cfg.Path)
}
