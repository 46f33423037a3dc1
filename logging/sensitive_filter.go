package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces detected sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns detect credential material that must never reach logs.
// Compiled once at package initialization.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),        // OpenAI API keys (sk-..., sk-proj-...)
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`), // Bearer tokens
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
}

// sensitiveFieldFragments mark structured field names whose values are
// redacted wholesale regardless of content.
var sensitiveFieldFragments = []string{
	"api_key",
	"apikey",
	"password",
	"secret",
	"token",
	"authorization",
}

// RedactSensitiveData scans a string and redacts any detected credentials.
// Pure function; returns the input unchanged when nothing matches.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveFieldName reports whether a structured-log field name indicates
// a credential value.
func IsSensitiveFieldName(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveFieldFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// RedactField returns the redaction placeholder when the field name is
// sensitive, otherwise the (pattern-scanned) value.
func RedactField(name, value string) string {
	if IsSensitiveFieldName(name) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(value)
}
