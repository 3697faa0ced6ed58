package llm

import (
	"fmt"
	"strings"
	"time"
)

// StripFences removes surrounding markdown code fences from a model response.
// Models frequently wrap JSON or markdown output in ```json ... ``` blocks
// despite instructions not to.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"```json", "```markdown", "```"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ExtractJSON pulls the JSON object out of a model response, tolerating
// markdown fences and prose before or after the object.
func ExtractJSON(text string) (string, error) {
	text = StripFences(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[startIdx : endIdx+1], nil
}

// dateFormats are the shapes models produce when they ignore the requested
// YYYY-MM-DD format.
var dateFormats = []string{
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"January 2, 2006",
}

// NormalizeDate coerces a model-produced date string to YYYY-MM-DD, falling
// back to the provided default when the string cannot be parsed.
func NormalizeDate(s string, fallback time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback.Format("2006-01-02")
	}

	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Format("2006-01-02")
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return fallback.Format("2006-01-02")
}
