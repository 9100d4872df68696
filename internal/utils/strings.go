package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fallback returns v trimmed, or fallback when v is blank.
func Fallback(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

// CleanNameList normalizes the spacing of each name and drops blank entries.
// Commas inside a name are kept.
func CleanNameList(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// SanitizeFilenamePart replaces every rune outside [A-Za-z0-9] with '_' and
// caps the result at max characters.
func SanitizeFilenamePart(s string, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf && isAlnum(byte(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
