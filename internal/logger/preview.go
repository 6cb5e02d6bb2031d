package logger

import (
	"strings"

	"go.uber.org/zap"
)

// FieldResponsePreview holds a shortened model response in debug logs.
const FieldResponsePreview = "response_preview"

// Truncate cuts s to limit runes and marks the cut with an ellipsis. A
// non-positive limit yields "".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// ResponsePreview renders a model response on a single line, collapsing
// whitespace runs, and truncates it to limit runes.
func ResponsePreview(raw string, limit int) zap.Field {
	return zap.String(FieldResponsePreview, Truncate(strings.Join(strings.Fields(raw), " "), limit))
}
