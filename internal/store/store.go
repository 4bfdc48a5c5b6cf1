// Package store provides the key-value persistence capability used by the
// notes, reminder, and media-metadata features.
//
// Values are JSON-serialisable Go values addressed by string keys. Consumers
// follow a read-then-overwrite-whole-set discipline: the full value for a key
// is loaded at initialisation and rewritten after every mutation. Concurrent
// writers to the same key are out of scope (a single active UI session is
// assumed); implementations only need to be internally consistent.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no value exists for the requested key.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value persistence capability.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Load reads the value stored under key and JSON-decodes it into dest.
	// dest must be a non-nil pointer. Returns [ErrNotFound] when the key
	// has never been saved.
	Load(ctx context.Context, key string, dest any) error

	// Save JSON-encodes value and stores it under key, replacing any
	// previous value.
	Save(ctx context.Context, key string, value any) error
}
