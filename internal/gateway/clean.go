package gateway

import "strings"

// cleanJSON strips markdown code fences the model sometimes wraps JSON in.
// An empty response becomes an empty array.
func cleanJSON(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "[]"
	}
	return cleaned
}
