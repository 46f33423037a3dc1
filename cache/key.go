package cache

import "strings"

// KeyFromPrompt derives the cache key for a free-text prompt.
//
// The prompt is used verbatim: no trimming, lowercasing, or whitespace
// normalization. "Sunset" and "sunset " are distinct keys. This is a
// deliberate simplicity choice; near-identical prompts regenerate.
func KeyFromPrompt(prompt string) string {
	return prompt
}

// KeyFromFields derives the cache key for the structured request shape.
//
// Fields are joined with ", " in fixed order, absent fields omitted, and the
// context field prefixed with "for":
//
//	KeyFromFields("cat", "watercolor", "greeting card") // "cat, watercolor, for greeting card"
//	KeyFromFields("cat", "", "")                        // "cat"
func KeyFromFields(subject, style, context string) string {
	parts := make([]string, 0, 3)
	if subject != "" {
		parts = append(parts, subject)
	}
	if style != "" {
		parts = append(parts, style)
	}
	if context != "" {
		parts = append(parts, "for "+context)
	}
	return strings.Join(parts, ", ")
}
