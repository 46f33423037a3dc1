package imagegen

import "strings"

// IsAzureEndpoint reports whether an endpoint URL belongs to Azure OpenAI.
// Azure endpoints use deployment-based routing and a different auth header,
// so the adapter choice hinges on this check.
//
// Matches (case-insensitive): *.openai.azure.com, *.cognitiveservices.azure.com.
func IsAzureEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	lower := strings.ToLower(endpoint)
	return strings.Contains(lower, "openai.azure.com") ||
		strings.Contains(lower, "cognitiveservices.azure.com")
}

// IsLocalEndpoint reports whether an endpoint URL points at a local or
// private-network host. Local inference servers don't implement the image
// generation API, so these are rejected at construction time.
func IsLocalEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	lower := strings.ToLower(endpoint)
	return strings.Contains(lower, "localhost") ||
		strings.Contains(lower, "127.0.0.1") ||
		strings.Contains(lower, "0.0.0.0") ||
		strings.Contains(lower, "192.168.") ||
		strings.Contains(lower, "10.")
}
