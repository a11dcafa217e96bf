// Package tag decides which backend tags are worth showing to the user.
package tag

import (
	"strings"
	"unicode/utf8"
)

// minLength is the shortest displayable tag length; shorter tags are acronym noise.
const minLength = 4

// excluded holds lowercase tags hidden regardless of shape.
var excluded = map[string]struct{}{
	"transformers": {},
}

// excludedPrefixes holds lowercase namespace prefixes hidden from display.
var excludedPrefixes = []string{
	"arxiv:",
	"doi:",
	"license:",
	"dataset:",
	"base_model:",
	"diffusers:",
}

// IsDisplayable reports whether tag should be shown. It never panics.
func IsDisplayable(tag string) bool {
	if tag == "" || utf8.RuneCountInString(tag) < minLength {
		return false
	}
	lower := strings.ToLower(tag)
	if _, ok := excluded[lower]; ok {
		return false
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}

// Displayable returns the displayable subset of tags, preserving source order.
func Displayable(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if IsDisplayable(t) {
			out = append(out, t)
		}
	}
	return out
}
