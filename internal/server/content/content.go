// Package content cleans user-supplied post text: HTML sanitizing, plain
// text extraction and keyword normalization.
package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()

	nonAlphanumeric = regexp.MustCompile(`[^0-9a-zA-Z]+`)
)

// Sanitize strips scripts, event handlers and other unsafe markup while
// keeping the formatting tags a rich-text editor produces.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}

// PlainText returns the text content of an HTML fragment. Closing tags are
// treated as word boundaries so "<p>a</p><p>b</p>" yields "a b".
func PlainText(s string) string {
	spaced := strings.ReplaceAll(s, "</", " </")
	text := html.UnescapeString(strictPolicy.Sanitize(spaced))
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeKeywords lowercases keywords, removes anything outside [0-9a-z],
// drops empties and duplicates. Input order is preserved.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	result := make([]string, 0, len(keywords))

	for _, k := range keywords {
		n := nonAlphanumeric.ReplaceAllString(strings.ToLower(k), "")
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}

	return result
}

// SplitKeywords splits a comma separated form value into keywords.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
