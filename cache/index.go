// Package cache provides the durable key-to-artifact index that decides
// whether an image request is served from storage or generated fresh.
//
// The index maps a deterministic CacheKey (see key.go) to the public
// reference of a previously stored artifact. Backends: SQLite (default),
// Redis, and an in-memory map for development and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Lookup when no entry exists for a key.
// A clean miss, not a backend failure.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is a recorded key-to-artifact mapping. Entries are created only
// after a successful artifact upload and are never updated in place.
type Entry struct {
	Key         string
	ArtifactRef string
	CreatedAt   time.Time
}

// Index is the durable cache index consumed by the orchestrator.
//
// Insert does not enforce key uniqueness: two concurrent misses on the same
// key may both insert, leaving two valid entries. Lookup returns the oldest.
// That race is accepted rather than locked away; correctness only requires
// that a valid artifact reference is returned.
type Index interface {
	// Lookup returns the entry for key, or ErrNotFound on a clean miss.
	Lookup(ctx context.Context, key string) (Entry, error)

	// Insert records a new key-to-artifact mapping and returns the stored entry.
	Insert(ctx context.Context, key, artifactRef string) (Entry, error)

	// Delete removes all entries for key. Used by maintenance flows only,
	// never by the request path.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
