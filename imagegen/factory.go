package imagegen

import (
	"noodle_backend/core"
	"noodle_backend/logging"

	"go.uber.org/zap"
)

// NewProviderFromConfig selects and builds the provider for the configured
// endpoint: Azure when an Azure endpoint is configured, OpenAI otherwise.
func NewProviderFromConfig(cfg *core.Config, logger *logging.Logger) (Provider, error) {
	useAzure := false
	if cfg.AzureOpenAIEndpoint != "" && IsAzureEndpoint(cfg.AzureOpenAIEndpoint) {
		useAzure = true
	} else if cfg.ImageLLMURL != "" && IsAzureEndpoint(cfg.ImageLLMURL) {
		useAzure = true
	}

	if useAzure {
		logger.Info("using Azure OpenAI provider for image generation",
			zap.String("endpoint", cfg.AzureOpenAIEndpoint),
			zap.String("deployment", cfg.AzureOpenAIDeployment))
		return NewAzureProvider(cfg)
	}

	logger.Info("using OpenAI provider for image generation",
		zap.String("model", cfg.OpenAIImageModel))
	return NewOpenAIProvider(cfg)
}
