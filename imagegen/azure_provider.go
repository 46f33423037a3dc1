package imagegen

import (
	"context"
	"fmt"

	"noodle_backend/core"

	"github.com/sashabaranov/go-openai"
)

// AzureProvider implements Provider for Azure OpenAI image deployments.
//
// Azure differs from standard OpenAI in using deployment names instead of
// model names and Azure-specific endpoint/auth configuration; the response
// shape and error classification are shared with the OpenAI adapter.
type AzureProvider struct {
	client     *openai.Client
	deployment string
}

// NewAzureProvider creates an Azure OpenAI image generation provider from
// the service config.
//
// Returns an error if the API key, endpoint, or deployment is missing, or
// if the endpoint is not an Azure OpenAI endpoint.
func NewAzureProvider(cfg *core.Config) (*AzureProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("imagegen: API key is required for Azure image generation")
	}

	endpoint := cfg.ImageLLMURL
	if endpoint == "" {
		endpoint = cfg.AzureOpenAIEndpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("imagegen: Azure endpoint is required; set IMAGE_LLM_URL or AZURE_OPENAI_ENDPOINT")
	}
	if !IsAzureEndpoint(endpoint) {
		return nil, fmt.Errorf("imagegen: endpoint (%s) is not an Azure OpenAI endpoint", endpoint)
	}

	deployment := cfg.AzureOpenAIDeployment
	if deployment == "" {
		return nil, fmt.Errorf("imagegen: Azure deployment name is required; set AZURE_OPENAI_DEPLOYMENT")
	}

	clientConfig := openai.DefaultAzureConfig(cfg.OpenAIAPIKey, endpoint)
	if cfg.AzureOpenAIAPIVersion != "" {
		clientConfig.APIVersion = cfg.AzureOpenAIAPIVersion
	}
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.AITimeout)

	return &AzureProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: deployment,
	}, nil
}

// Generate creates an image from the given prompt via the Azure deployment.
func (p *AzureProvider) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	if prompt == "" {
		return nil, NewGenerationError(KindInvalidRequest, "prompt cannot be empty", nil)
	}

	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.deployment,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	}
	if opts.Size != "" {
		req.Size = opts.Size
	}

	response, err := p.client.CreateImage(ctx, req)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return decodeImagePayload(response)
}

// Name identifies the provider in logs.
func (p *AzureProvider) Name() string {
	return "azure"
}

// Deployment returns the configured deployment name.
func (p *AzureProvider) Deployment() string {
	return p.deployment
}

var _ Provider = (*AzureProvider)(nil)
