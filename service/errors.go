package service

import (
	"errors"
	"fmt"
	"net/http"

	"noodle_backend/imagegen"
)

// Status classifies a pipeline failure for the transport layer. The HTTP
// handlers map it to a response code; nothing in this package imports the
// router.
type Status int

const (
	// StatusInvalidInput rejects empty or malformed request input.
	StatusInvalidInput Status = iota

	// StatusContentPolicy marks a prompt the provider refused on safety grounds.
	StatusContentPolicy

	// StatusRateLimited marks provider rate limiting that outlived the retry
	// budget.
	StatusRateLimited

	// StatusStorage marks artifact upload or cache index failures.
	StatusStorage

	// StatusInternal covers provider outages, unclassified failures, and
	// anything else the caller cannot fix by changing the request.
	StatusInternal
)

// RequestError is the single error shape the pipeline surfaces to transports.
type RequestError struct {
	Status Status

	// Detail is a human-readable description safe to return to clients.
	Detail string

	// Err is the underlying cause, kept for logs.
	Err error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("service: %s", e.Detail)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the classification to a response code.
func (e *RequestError) HTTPStatus() int {
	switch e.Status {
	case StatusInvalidInput:
		return http.StatusBadRequest
	case StatusContentPolicy:
		return http.StatusForbidden
	case StatusRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func invalidInput(detail string) *RequestError {
	return &RequestError{Status: StatusInvalidInput, Detail: detail}
}

func storageFailure(detail string, err error) *RequestError {
	return &RequestError{Status: StatusStorage, Detail: detail, Err: err}
}

func internalFailure(detail string, err error) *RequestError {
	return &RequestError{Status: StatusInternal, Detail: detail, Err: err}
}

// classifyGeneration converts a generation failure into a RequestError.
// Retry exhaustion keeps the last attempt's kind, so rate-limit exhaustion
// still surfaces as StatusRateLimited.
func classifyGeneration(err error) *RequestError {
	genErr := imagegen.AsGenerationError(err)
	switch genErr.Kind {
	case imagegen.KindInvalidRequest:
		return &RequestError{Status: StatusInvalidInput, Detail: genErr.Message, Err: err}
	case imagegen.KindContentPolicy:
		return &RequestError{Status: StatusContentPolicy, Detail: genErr.Message, Err: err}
	case imagegen.KindRateLimited:
		return &RequestError{Status: StatusRateLimited, Detail: genErr.Message, Err: err}
	default:
		return &RequestError{Status: StatusInternal, Detail: "image generation failed", Err: err}
	}
}

// AsRequestError extracts a RequestError from an error chain, wrapping
// anything unclassified as StatusInternal.
func AsRequestError(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &RequestError{Status: StatusInternal, Detail: "internal server error", Err: err}
}
