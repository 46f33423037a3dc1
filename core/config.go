package core

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the image cache service.
//
// Values are resolved in three layers: compiled-in defaults, then an optional
// YAML config file (CONFIG_FILE), then environment variables. Environment
// variables always win so deployments can override a shared config file.
type Config struct {
	// HTTP server
	Host            string
	Port            int
	DevMode         bool
	LogFilePath     string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// Generation provider (OpenAI or Azure OpenAI)
	OpenAIAPIKey          string
	ImageLLMURL           string // API endpoint override; empty means api.openai.com
	OpenAIImageModel      string
	AzureOpenAIEndpoint   string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string
	ImageSize             string // e.g. "1024x1024"
	AITimeout             time.Duration
	MaxRetries            int
	RetryDelay            time.Duration

	// Cache index
	CacheBackend   string // "sqlite", "redis", or "memory"
	SQLitePath     string
	MigrationsPath string // file:// URL for golang-migrate
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Artifact store
	ArtifactsDir  string
	PublicBaseURL string // base URL under which stored images are served

	AllowSelfSignedCerts bool
}

// fileConfig mirrors Config for the optional YAML overlay. Pointer fields
// distinguish "absent" from zero values so the file only overrides what it sets.
type fileConfig struct {
	Host             *string `yaml:"host"`
	Port             *int    `yaml:"port"`
	LogFilePath      *string `yaml:"log_file"`
	ImageLLMURL      *string `yaml:"image_llm_url"`
	OpenAIImageModel *string `yaml:"image_model"`
	ImageSize        *string `yaml:"image_size"`
	MaxRetries       *int    `yaml:"max_retries"`
	RetryDelaySecs   *int    `yaml:"retry_delay_seconds"`
	AITimeoutSecs    *int    `yaml:"ai_timeout_seconds"`
	CacheBackend     *string `yaml:"cache_backend"`
	SQLitePath       *string `yaml:"sqlite_path"`
	MigrationsPath   *string `yaml:"migrations_path"`
	RedisAddr        *string `yaml:"redis_addr"`
	RedisKeyPrefix   *string `yaml:"redis_key_prefix"`
	ArtifactsDir     *string `yaml:"artifacts_dir"`
	PublicBaseURL    *string `yaml:"public_base_url"`
}

// DefaultConfig returns the compiled-in defaults before any file or env overrides.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8000,
		LogFilePath:     "app.log",
		MaxBodyBytes:    1 << 20, // 1MB is plenty for a prompt
		ShutdownTimeout: 30 * time.Second,

		OpenAIImageModel:      "dall-e-3",
		AzureOpenAIAPIVersion: "2024-02-15-preview",
		ImageSize:             "1024x1024",
		AITimeout:             60 * time.Second,
		MaxRetries:            3,
		RetryDelay:            time.Second,

		CacheBackend:   "sqlite",
		SQLitePath:     "./data/imagecache.db",
		MigrationsPath: "file://cache/migrations",
		RedisAddr:      "127.0.0.1:6379",
		RedisKeyPrefix: "imagecache",

		ArtifactsDir: "./artifacts",
	}
}

// LoadConfig loads configuration from the environment with sensible defaults.
// If CONFIG_FILE is set, the YAML file is applied between defaults and env.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Host = GetEnvOrDefault("HOST", cfg.Host)
	cfg.Port = ParseIntEnv("PORT", cfg.Port)
	cfg.DevMode = ParseBoolEnv("DEV_MODE", cfg.DevMode)
	cfg.LogFilePath = GetEnvOrDefault("LOG_FILE", cfg.LogFilePath)
	cfg.MaxBodyBytes = ParseInt64Env("MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.ShutdownTimeout = ParseDurationSecondsEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.OpenAIAPIKey = GetEnvOrDefault("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.ImageLLMURL = GetEnvOrDefault("IMAGE_LLM_URL", cfg.ImageLLMURL)
	cfg.OpenAIImageModel = GetEnvOrDefault("IMAGE_GEN_MODEL", cfg.OpenAIImageModel)
	cfg.AzureOpenAIEndpoint = GetEnvOrDefault("AZURE_OPENAI_ENDPOINT", cfg.AzureOpenAIEndpoint)
	cfg.AzureOpenAIDeployment = GetEnvOrDefault("AZURE_OPENAI_DEPLOYMENT", cfg.AzureOpenAIDeployment)
	cfg.AzureOpenAIAPIVersion = GetEnvOrDefault("AZURE_OPENAI_API_VERSION", cfg.AzureOpenAIAPIVersion)
	cfg.ImageSize = GetEnvOrDefault("IMAGE_SIZE", cfg.ImageSize)
	cfg.AITimeout = ParseDurationSecondsEnv("AI_TIMEOUT", cfg.AITimeout)
	cfg.MaxRetries = ParseIntEnv("MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelay = ParseDurationSecondsEnv("RETRY_DELAY", cfg.RetryDelay)

	cfg.CacheBackend = strings.ToLower(GetEnvOrDefault("CACHE_BACKEND", cfg.CacheBackend))
	cfg.SQLitePath = GetEnvOrDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.MigrationsPath = GetEnvOrDefault("MIGRATIONS_PATH", cfg.MigrationsPath)
	cfg.RedisAddr = GetEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = GetEnvOrDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseIntEnv("REDIS_DB", cfg.RedisDB)
	cfg.RedisKeyPrefix = GetEnvOrDefault("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)

	cfg.ArtifactsDir = GetEnvOrDefault("ARTIFACTS_DIR", cfg.ArtifactsDir)
	cfg.PublicBaseURL = GetEnvOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.AllowSelfSignedCerts = ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", cfg.AllowSelfSignedCerts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that cannot be expressed by defaults.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "sqlite", "redis", "memory":
	default:
		return ErrInvalidCacheBackend(c.CacheBackend)
	}

	if c.OpenAIAPIKey == "" {
		if c.AzureOpenAIEndpoint != "" {
			return ErrMissingAuth("azure")
		}
		return ErrMissingAuth("openai")
	}

	if c.PublicBaseURL != "" {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil {
			return ErrInvalidBaseURL(c.PublicBaseURL, err.Error())
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrInvalidBaseURL(c.PublicBaseURL, "scheme must be http or https")
		}
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("core: MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// PublicURL returns the base URL under which artifacts are served. When
// PUBLIC_BASE_URL is unset the server's own /images route is used.
func (c *Config) PublicURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	host := c.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d/images", host, c.Port)
}

func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfigFileInvalid(path, err.Error())
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ErrConfigFileInvalid(path, err.Error())
	}

	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.LogFilePath != nil {
		cfg.LogFilePath = *fc.LogFilePath
	}
	if fc.ImageLLMURL != nil {
		cfg.ImageLLMURL = *fc.ImageLLMURL
	}
	if fc.OpenAIImageModel != nil {
		cfg.OpenAIImageModel = *fc.OpenAIImageModel
	}
	if fc.ImageSize != nil {
		cfg.ImageSize = *fc.ImageSize
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.RetryDelaySecs != nil {
		cfg.RetryDelay = time.Duration(*fc.RetryDelaySecs) * time.Second
	}
	if fc.AITimeoutSecs != nil {
		cfg.AITimeout = time.Duration(*fc.AITimeoutSecs) * time.Second
	}
	if fc.CacheBackend != nil {
		cfg.CacheBackend = strings.ToLower(*fc.CacheBackend)
	}
	if fc.SQLitePath != nil {
		cfg.SQLitePath = *fc.SQLitePath
	}
	if fc.MigrationsPath != nil {
		cfg.MigrationsPath = *fc.MigrationsPath
	}
	if fc.RedisAddr != nil {
		cfg.RedisAddr = *fc.RedisAddr
	}
	if fc.RedisKeyPrefix != nil {
		cfg.RedisKeyPrefix = *fc.RedisKeyPrefix
	}
	if fc.ArtifactsDir != nil {
		cfg.ArtifactsDir = *fc.ArtifactsDir
	}
	if fc.PublicBaseURL != nil {
		cfg.PublicBaseURL = *fc.PublicBaseURL
	}
	return nil
}
