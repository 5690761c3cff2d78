// Package argenc encodes argument values as filesystem-safe path segments.
package argenc

import "strings"

// TruncMarker is appended to segments cut at the length limit, keeping long
// values visually distinguishable from naturally short ones. Truncation only
// affects readable paths; authoritative keys hash the full value.
const TruncMarker = "..."

const upperhex = "0123456789ABCDEF"

// Truncate caps s at max runes, appending [TruncMarker] when anything was
// cut. max <= 0 disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncMarker
}

// Escape percent-encodes every byte outside the unreserved set
// [A-Za-z0-9._~-], making the result safe as a single path segment on any
// filesystem.
func Escape(s string) string {
	var hexCount int
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// Segment truncates then escapes a value for use as a directory name.
func Segment(s string, max int) string {
	return Escape(Truncate(s, max))
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}
