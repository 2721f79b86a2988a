package storage

import (
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map.
// Used when STORAGE=memory and in tests. Entries beyond maxRows evict the
// least recently written key.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	maxRows int
	closed  bool
}

type memEntry struct {
	value   string
	updated time.Time
}

// NewMemoryStore creates a new in-memory store. maxRows <= 0 means unbounded.
func NewMemoryStore(maxRows int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		maxRows: maxRows,
	}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set creates or overwrites key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries[key] = memEntry{value: value, updated: time.Now()}

	if s.maxRows > 0 && len(s.entries) > s.maxRows {
		s.evictOldestLocked()
	}
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range s.entries {
		if !found || e.updated.Before(oldest) {
			oldestKey, oldest, found = k, e.updated, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
	}
}
