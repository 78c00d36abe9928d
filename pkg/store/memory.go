package store

import (
	"sync"

	"github.com/redquill/ferret/pkg/types"
)

// MemoryStore implements Store using in-memory data structures. No database
// file is created; everything is lost on Close.
type MemoryStore struct {
	mu      sync.RWMutex
	hits    []types.StatEntry
	matches []*types.Match
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// AddHit records one walk hit.
func (m *MemoryStore) AddHit(e types.StatEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits = append(m.hits, e)
	return nil
}

// AddMatch records one grep match.
func (m *MemoryStore) AddMatch(match *types.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.matches = append(m.matches, match)
	return nil
}

// Hits returns all recorded walk hits in insertion order.
func (m *MemoryStore) Hits() ([]types.StatEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.StatEntry, len(m.hits))
	copy(result, m.hits)
	return result, nil
}

// Matches returns all recorded grep matches in insertion order.
func (m *MemoryStore) Matches() ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Match, len(m.matches))
	copy(result, m.matches)
	return result, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
