// Package storage persists the session credential.
// It is a plain key/value store: the console only ever keeps bearer tokens
// in it, never patient data.
package storage

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store closed")

// Store is the interface for credential key/value storage.
//
// Implementations must be safe for concurrent use: the web front-end shares
// one store across all browser sessions.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set creates or overwrites key.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases resources.
	Close() error
}
