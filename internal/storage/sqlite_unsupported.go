//go:build mips64 || mips64le || ppc64 || s390x

package storage

import (
	"errors"
	"log/slog"
)

// SQLiteStore implements Store using SQLite with WAL mode.
// This is a stub implementation for unsupported platforms.
type SQLiteStore struct{}

// NewSQLiteStore creates a new SQLite store at the given path.
// On unsupported platforms, this returns an error.
func NewSQLiteStore(path string, maxRows int, logger *slog.Logger) (*SQLiteStore, error) {
	return nil, errors.New("SQLite storage is not supported on this platform, use memory or file storage instead")
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	return "", false, errors.New("SQLite storage not available")
}

// Set creates or overwrites key.
func (s *SQLiteStore) Set(key, value string) error {
	return errors.New("SQLite storage not available")
}

// Delete removes key.
func (s *SQLiteStore) Delete(key string) error {
	return errors.New("SQLite storage not available")
}

// Count returns the number of stored keys.
func (s *SQLiteStore) Count() (int, error) {
	return 0, errors.New("SQLite storage not available")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return nil
}
