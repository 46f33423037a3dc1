// Package storage provides durable blob storage for generated images.
//
// The orchestrator owns an artifact from upload until its cache index entry
// is committed; Delete exists for the compensating path that removes a blob
// whose index insert failed.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyArtifact is returned when an upload carries no bytes.
var ErrEmptyArtifact = errors.New("storage: artifact data is empty")

// Store is the artifact store consumed by the orchestrator.
//
// Artifact ids are minted fresh (uuid) per upload attempt, so retries never
// collide with an existing object.
type Store interface {
	// Upload durably stores data under id and returns the public reference.
	Upload(ctx context.Context, id string, data []byte, contentType string) (string, error)

	// ResolveReference returns the public URL for a stored artifact id.
	// Pure; performs no I/O.
	ResolveReference(id string) string

	// Delete removes the artifact. Best-effort compensation target: callers
	// log failures rather than propagate them.
	Delete(ctx context.Context, id string) error
}
