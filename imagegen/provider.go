// Package imagegen provides image generation via cloud providers.
//
// provider.go defines the Provider interface the orchestrator consumes and
// the classified GenerationError every adapter returns. The classification
// is what lets the retry layer tell "retrying cannot help" (invalid prompt,
// content policy) from "retrying may help" (rate limit, outage).
package imagegen

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the interface for image generation backends.
//
// Generate returns the raw encoded image bytes, or a *GenerationError.
// Network calls, authentication, and response decoding (base64 payloads vs
// URLs) are private concerns of each adapter.
type Provider interface {
	// Generate creates an image from the given prompt.
	// The context carries cancellation and the per-attempt timeout.
	Generate(ctx context.Context, prompt string, opts Options) ([]byte, error)

	// Name identifies the provider in logs.
	Name() string
}

// Options carries generation parameters shared across providers.
type Options struct {
	// Size is the requested image size, e.g. "1024x1024".
	Size string

	// Style is the rendering style for models that support one
	// (DALL-E 3 accepts "vivid" or "natural").
	Style string
}

// Error kinds. Permanent kinds short-circuit the retry loop; transient
// kinds consume a retry slot.
const (
	KindInvalidRequest = "invalid_request"      // permanent: malformed or empty prompt
	KindContentPolicy  = "content_policy"       // permanent: safety rejection
	KindRateLimited    = "rate_limited"         // transient
	KindUnavailable    = "provider_unavailable" // transient: outage or timeout
	KindUnknown        = "unknown"              // transient: unclassified
)

// GenerationError is a classified image generation failure.
type GenerationError struct {
	// Kind is one of the Kind* constants.
	Kind string

	// Message is a human-readable description safe to surface to callers.
	Message string

	// Cause is the underlying provider error, kept for diagnostics.
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt might change the outcome.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindInvalidRequest, KindContentPolicy:
		return false
	}
	return true
}

// NewGenerationError builds a classified generation error.
func NewGenerationError(kind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Cause: cause}
}

// AsGenerationError extracts the classification from an error chain, wrapping
// unclassified errors as KindUnknown so callers always see one shape.
func AsGenerationError(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &GenerationError{Kind: KindUnknown, Message: "image generation failed", Cause: err}
}
