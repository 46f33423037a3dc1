package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"noodle_backend/core"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for the OpenAI image generation API.
//
// The adapter requests base64-encoded payloads and decodes them privately;
// callers only ever see raw image bytes or a classified error.
//
// Thread safety: safe for concurrent use, the underlying client handles
// connection pooling.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI image generation provider from the
// service config.
//
// Returns an error if the API key is empty or the configured endpoint is a
// local inference server, which does not support image generation.
func NewOpenAIProvider(cfg *core.Config) (*OpenAIProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("imagegen: OpenAI API key is required for image generation")
	}

	endpoint := cfg.ImageLLMURL
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	if IsLocalEndpoint(endpoint) {
		return nil, fmt.Errorf("imagegen: local endpoint (%s) does not support image generation; "+
			"configure IMAGE_LLM_URL to use OpenAI or Azure", endpoint)
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = endpoint
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.AITimeout)

	model := cfg.OpenAIImageModel
	if model == "" {
		model = "dall-e-3"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Generate creates an image from the given prompt.
//
// Returns the decoded image bytes, or a *GenerationError classifying the
// failure (invalid prompt, content policy, rate limit, outage).
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	if prompt == "" {
		return nil, NewGenerationError(KindInvalidRequest, "prompt cannot be empty", nil)
	}

	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.model,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	}
	if opts.Size != "" {
		req.Size = opts.Size
	}

	// Style is only supported by DALL-E 3.
	if p.model == "dall-e-3" {
		style := opts.Style
		if style == "" {
			style = openai.CreateImageStyleVivid
		}
		req.Style = style
	}

	response, err := p.client.CreateImage(ctx, req)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return decodeImagePayload(response)
}

// Name identifies the provider in logs.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the configured image model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// decodeImagePayload validates a provider response and decodes its base64
// image payload. A malformed response from a healthy endpoint is transient:
// nothing about the request makes it inevitable.
func decodeImagePayload(response openai.ImageResponse) ([]byte, error) {
	if len(response.Data) == 0 {
		return nil, NewGenerationError(KindUnknown, "provider returned no image data", nil)
	}
	if response.Data[0].B64JSON == "" {
		return nil, NewGenerationError(KindUnknown, "provider returned an empty image payload", nil)
	}

	data, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, NewGenerationError(KindUnknown, "provider returned an undecodable image payload", err)
	}
	if len(data) == 0 {
		return nil, NewGenerationError(KindUnknown, "provider returned zero image bytes", nil)
	}
	return data, nil
}

var _ Provider = (*OpenAIProvider)(nil)
