package engine

import (
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	htmlPattern  = regexp.MustCompile(`<[^>]+>`)
	tokenPattern = regexp.MustCompile(`[a-z0-9]+`)
)

// Normalize converts raw text into the canonical form the model was trained
// on: URLs and HTML tags are blanked out, the remainder is lowercased, and
// only alphanumeric runs survive, joined by single spaces. The function is
// idempotent, so normalizing already-normalized text is a no-op.
func Normalize(text string) string {
	s := urlPattern.ReplaceAllString(text, " ")
	s = htmlPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	tokens := tokenPattern.FindAllString(s, -1)
	return strings.Join(tokens, " ")
}

// Tokens splits normalized text into its whitespace-separated tokens.
// It returns nil for empty input.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
