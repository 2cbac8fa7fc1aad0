// Package textnorm cleans text extracted from PDF pages before it is chunked
// and embedded.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	newlines    = regexp.MustCompile(`\n+`)
	whitespace  = regexp.MustCompile(`[\s\v\p{Z}]+`)
	pageNumbers = regexp.MustCompile(`\d+\s*/\s*\d+`)
	disallowed  = regexp.MustCompile(`[^a-zA-Z0-9,.?!\s]`)
)

// Normalize collapses whitespace, removes "N / M" page-number artifacts and
// every character outside letters, digits, ",.?!" and whitespace, then trims
// and lowercases. The result never holds two whitespace characters in a row.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = newlines.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	text = pageNumbers.ReplaceAllString(text, " ")
	text = disallowed.ReplaceAllString(text, "")
	// removals above may leave runs of spaces behind
	text = whitespace.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}
