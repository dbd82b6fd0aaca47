package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips all markup; it is safe for concurrent use
var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from user-entered display text such as tile
// titles. Entities are decoded afterwards so "Salah & Co" survives intact.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
