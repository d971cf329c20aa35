package checkpoint

import (
	"slices"
	"sync"
)

// MemoryStore is an in-memory Store for tests. It records every saved value
// so callers can assert on the write sequence.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[Key]int
	history map[Key][]int

	// SaveErr, when set, is returned by every Save and nothing is stored.
	SaveErr error
}

// Compile-time interface guard.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[Key]int),
		history: make(map[Key][]int),
	}
}

// Load implements Store.
func (s *MemoryStore) Load(key Key) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.values[key]
	return id, ok, nil
}

// Save implements Store.
func (s *MemoryStore) Save(key Key, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.values[key] = id
	s.history[key] = append(s.history[key], id)
	return nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// History returns every value saved for key, in write order.
func (s *MemoryStore) History(key Key) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history[key])
}
