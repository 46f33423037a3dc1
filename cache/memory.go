package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIndex is an in-process Index for development and tests.
//
// It keeps every inserted entry per key (mirroring the no-uniqueness
// behavior of the durable backends) and serves the oldest on lookup.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string][]Entry),
	}
}

// Lookup returns the oldest entry for key, or ErrNotFound.
func (m *MemoryIndex) Lookup(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.entries[key]
	if !ok || len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// Insert appends a new entry for key. Duplicate keys are permitted.
func (m *MemoryIndex) Insert(ctx context.Context, key, artifactRef string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Key:         key,
		ArtifactRef: artifactRef,
		CreatedAt:   time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append(m.entries[key], entry)
	return entry, nil
}

// Delete removes all entries for key.
func (m *MemoryIndex) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Ping always succeeds for the in-memory backend.
func (m *MemoryIndex) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory backend.
func (m *MemoryIndex) Close() error {
	return nil
}

// Len returns the total number of stored entries across all keys.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, entries := range m.entries {
		total += len(entries)
	}
	return total
}

var _ Index = (*MemoryIndex)(nil)
