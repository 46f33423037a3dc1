package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeMissingAuth         = "MISSING_AUTH"
	ErrCodeInvalidCacheBackend = "INVALID_CACHE_BACKEND"
	ErrCodeInvalidBaseURL      = "INVALID_BASE_URL"
	ErrCodeMissingConfig       = "MISSING_CONFIG"
	ErrCodeConfigFileInvalid   = "CONFIG_FILE_INVALID"
)

// ErrMissingAuth returns an error for missing provider credentials.
func ErrMissingAuth(service string) *ConfigError {
	var action string
	switch service {
	case "openai":
		action = "Set OPENAI_API_KEY in your .env file"
	case "azure":
		action = "Set OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT in your .env file"
	default:
		action = fmt.Sprintf("Set the required API key for %s in your .env file", service)
	}
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing authentication credentials for %s", service),
		Action:  action,
	}
}

// ErrInvalidCacheBackend returns an error for an unrecognized cache backend name.
func ErrInvalidCacheBackend(backend string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidCacheBackend,
		Message: fmt.Sprintf("Unknown cache backend '%s'", backend),
		Action:  "Set CACHE_BACKEND to one of: sqlite, redis, memory",
	}
}

// ErrInvalidBaseURL returns an error for a malformed public base URL.
func ErrInvalidBaseURL(url string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidBaseURL,
		Message: fmt.Sprintf("Invalid PUBLIC_BASE_URL '%s': %s", url, reason),
		Action:  "Set PUBLIC_BASE_URL to a valid URL (e.g., https://images.example.com)",
	}
}

// ErrMissingConfig returns an error for a missing required configuration value.
func ErrMissingConfig(name string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", name),
		Action:  fmt.Sprintf("Set %s in your .env file", name),
	}
}

// ErrConfigFileInvalid returns an error for an unreadable or malformed config file.
func ErrConfigFileInvalid(path string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFileInvalid,
		Message: fmt.Sprintf("Cannot load config file %s: %s", path, reason),
		Action:  "Check that CONFIG_FILE points to a readable YAML file",
	}
}
