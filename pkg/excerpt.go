// Package pkg is a package that provides utilities for semgrepd.
package pkg

import (
	"strings"
	"unicode/utf8"
)

// Excerpt returns the trimmed contents of b capped at max bytes, backing off
// to a rune boundary so truncation never splits a UTF-8 sequence. It is used
// to bound process output carried inside error payloads. A non-positive max
// yields an empty string.
func Excerpt(b []byte, max int) string {
	if max <= 0 {
		return ""
	}

	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
