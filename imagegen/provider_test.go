package imagegen

import (
	"encoding/base64"
	"testing"

	"noodle_backend/core"
	"noodle_backend/logging"

	"github.com/sashabaranov/go-openai"
)

func nopLogger() *logging.Logger { return logging.NewNop() }

func TestNewOpenAIProvider(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		cfg := core.DefaultConfig()
		if _, err := NewOpenAIProvider(cfg); err == nil {
			t.Error("NewOpenAIProvider() should fail without an API key")
		}
	})

	t.Run("rejects local endpoint", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "sk-test"
		cfg.ImageLLMURL = "http://localhost:11434/v1"
		if _, err := NewOpenAIProvider(cfg); err == nil {
			t.Error("NewOpenAIProvider() should reject local endpoints")
		}
	})

	t.Run("defaults model", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "sk-test"
		cfg.OpenAIImageModel = ""
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			t.Fatalf("NewOpenAIProvider() error = %v", err)
		}
		if p.Model() != "dall-e-3" {
			t.Errorf("Model() = %q, want dall-e-3", p.Model())
		}
		if p.Name() != "openai" {
			t.Errorf("Name() = %q, want openai", p.Name())
		}
	})
}

func TestNewAzureProvider(t *testing.T) {
	base := func() *core.Config {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "azure-key"
		cfg.AzureOpenAIEndpoint = "https://myresource.openai.azure.com"
		cfg.AzureOpenAIDeployment = "dall-e-3"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		p, err := NewAzureProvider(base())
		if err != nil {
			t.Fatalf("NewAzureProvider() error = %v", err)
		}
		if p.Deployment() != "dall-e-3" {
			t.Errorf("Deployment() = %q", p.Deployment())
		}
		if p.Name() != "azure" {
			t.Errorf("Name() = %q, want azure", p.Name())
		}
	})

	t.Run("requires api key", func(t *testing.T) {
		cfg := base()
		cfg.OpenAIAPIKey = ""
		if _, err := NewAzureProvider(cfg); err == nil {
			t.Error("NewAzureProvider() should fail without an API key")
		}
	})

	t.Run("requires endpoint", func(t *testing.T) {
		cfg := base()
		cfg.AzureOpenAIEndpoint = ""
		if _, err := NewAzureProvider(cfg); err == nil {
			t.Error("NewAzureProvider() should fail without an endpoint")
		}
	})

	t.Run("rejects non-azure endpoint", func(t *testing.T) {
		cfg := base()
		cfg.AzureOpenAIEndpoint = "https://api.openai.com/v1"
		if _, err := NewAzureProvider(cfg); err == nil {
			t.Error("NewAzureProvider() should reject a non-Azure endpoint")
		}
	})

	t.Run("requires deployment", func(t *testing.T) {
		cfg := base()
		cfg.AzureOpenAIDeployment = ""
		if _, err := NewAzureProvider(cfg); err == nil {
			t.Error("NewAzureProvider() should fail without a deployment name")
		}
	})
}

func TestNewProviderFromConfigSelection(t *testing.T) {
	t.Run("azure endpoint selects azure", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "key"
		cfg.AzureOpenAIEndpoint = "https://myresource.openai.azure.com"
		cfg.AzureOpenAIDeployment = "dall-e-3"
		p, err := NewProviderFromConfig(cfg, nopLogger())
		if err != nil {
			t.Fatalf("NewProviderFromConfig() error = %v", err)
		}
		if p.Name() != "azure" {
			t.Errorf("Name() = %q, want azure", p.Name())
		}
	})

	t.Run("azure image url selects azure", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "key"
		cfg.ImageLLMURL = "https://myresource.openai.azure.com"
		cfg.AzureOpenAIDeployment = "dall-e-3"
		p, err := NewProviderFromConfig(cfg, nopLogger())
		if err != nil {
			t.Fatalf("NewProviderFromConfig() error = %v", err)
		}
		if p.Name() != "azure" {
			t.Errorf("Name() = %q, want azure", p.Name())
		}
	})

	t.Run("default selects openai", func(t *testing.T) {
		cfg := core.DefaultConfig()
		cfg.OpenAIAPIKey = "sk-test"
		p, err := NewProviderFromConfig(cfg, nopLogger())
		if err != nil {
			t.Fatalf("NewProviderFromConfig() error = %v", err)
		}
		if p.Name() != "openai" {
			t.Errorf("Name() = %q, want openai", p.Name())
		}
	})
}

func TestDecodeImagePayload(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))

	t.Run("valid payload", func(t *testing.T) {
		resp := openai.ImageResponse{Data: []openai.ImageResponseDataInner{{B64JSON: payload}}}
		data, err := decodeImagePayload(resp)
		if err != nil {
			t.Fatalf("decodeImagePayload() error = %v", err)
		}
		if string(data) != "fake png bytes" {
			t.Errorf("decoded = %q", data)
		}
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := decodeImagePayload(openai.ImageResponse{})
		assertUnknownKind(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		resp := openai.ImageResponse{Data: []openai.ImageResponseDataInner{{}}}
		_, err := decodeImagePayload(resp)
		assertUnknownKind(t, err)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		resp := openai.ImageResponse{Data: []openai.ImageResponseDataInner{{B64JSON: "%%%not base64%%%"}}}
		_, err := decodeImagePayload(resp)
		assertUnknownKind(t, err)
	})
}

func assertUnknownKind(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	genErr := AsGenerationError(err)
	if genErr.Kind != KindUnknown {
		t.Errorf("Kind = %q, want %q", genErr.Kind, KindUnknown)
	}
	if !genErr.Retryable() {
		t.Error("malformed responses should be retryable")
	}
}
