// Package api is the HTTP surface: request parsing, response shaping, and
// routing. All pipeline behavior lives in the service package; handlers only
// translate between HTTP and the orchestrator.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"noodle_backend/cache"
	"noodle_backend/core"
	"noodle_backend/logging"
	"noodle_backend/service"

	"go.uber.org/zap"
)

// generateImageRequest is the JSON input shape.
type generateImageRequest struct {
	Prompt string `json:"prompt"`
}

// generateImageResponse is the success output shape.
type generateImageResponse struct {
	ImageURL string `json:"image_url"`
}

// errorResponse is the error output shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

// healthResponse is the health check output shape.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	orchestrator *service.Orchestrator
	logger       *logging.Logger
}

// NewHandlers builds the handler set.
func NewHandlers(orchestrator *service.Orchestrator, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		orchestrator: orchestrator,
		logger:       logger.Named("api"),
	}
}

// GenerateImage handles POST /generate_image/.
//
// Accepts either a JSON body {"prompt": "..."} or form fields
// subject (required), style, context. Both shapes resolve to a cache key
// that doubles as the generation prompt.
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	key, err := parseRequestKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Generation is expensive and its side effects (upload, index insert)
	// must complete atomically even if the client goes away mid-request, so
	// the pipeline runs detached from the client's cancellation.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.orchestrator.GenerateImage(ctx, key)
	if err != nil {
		reqErr := service.AsRequestError(err)
		writeError(w, reqErr.HTTPStatus(), reqErr.Detail)
		return
	}

	h.logger.Debug("image request served",
		zap.String("cache_key", result.Key),
		zap.Bool("cache_hit", result.CacheHit))
	writeJSON(w, http.StatusOK, generateImageResponse{ImageURL: result.ImageURL})
}

// Health handles GET /health. No side effects.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: core.Version,
	})
}

// parseRequestKey resolves the cache key from either input shape.
func parseRequestKey(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		var req generateImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errInvalidJSON
		}
		if req.Prompt == "" {
			return "", errMissingPrompt
		}
		return cache.KeyFromPrompt(req.Prompt), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", errInvalidForm
	}
	subject := r.PostFormValue("subject")
	if subject == "" {
		return "", errMissingSubject
	}
	return cache.KeyFromFields(subject, r.PostFormValue("style"), r.PostFormValue("context")), nil
}

var (
	errInvalidJSON    = &inputError{"request body is not valid JSON"}
	errMissingPrompt  = &inputError{"prompt is required"}
	errInvalidForm    = &inputError{"request form could not be parsed"}
	errMissingSubject = &inputError{"subject is required"}
)

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
