package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richText  = bluemonday.UGCPolicy()
	plainText = bluemonday.StrictPolicy()
)

// Sanitize cleans rich-text HTML, keeping formatting markup but dropping
// scripts, event handlers and other active content.
func Sanitize(input string) string {
	return richText.Sanitize(input)
}

// SanitizePlain strips all markup and surrounding whitespace and returns
// plain text. Used for titles, comments and report reasons.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(input)))
}
