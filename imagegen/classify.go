package imagegen

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// classifyProviderError maps a raw adapter error onto the GenerationError
// taxonomy. Both the OpenAI and Azure adapters speak the same API error
// shape, so classification lives here rather than per adapter.
func classifyProviderError(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && strings.Contains(code, "content_policy") {
			return NewGenerationError(KindContentPolicy, "prompt rejected by content policy", err)
		}

		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return NewGenerationError(KindRateLimited, "provider rate limit exceeded", err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return NewGenerationError(KindUnavailable, "provider unavailable", err)
		case apiErr.HTTPStatusCode >= http.StatusBadRequest:
			return NewGenerationError(KindInvalidRequest, "provider rejected the request", err)
		}
		return NewGenerationError(KindUnknown, "provider returned an unexpected error", err)
	}

	// A hung attempt cut off by the per-attempt timeout counts as an outage.
	if errors.Is(err, context.DeadlineExceeded) {
		return NewGenerationError(KindUnavailable, "generation attempt timed out", err)
	}

	return NewGenerationError(KindUnknown, "image generation failed", err)
}
