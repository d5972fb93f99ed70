package site

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns arbitrary text into a file-name-safe slug. Accents are
// stripped, whitespace becomes '-', and anything outside [A-Za-z0-9._-] is
// dropped. Runs of dashes collapse to one. Case is preserved.
func Slugify(s string) string {
	// transform.Chain keeps internal state, so it is built per call.
	strip := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(strip, s); err == nil {
		s = folded
	}

	var b strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case isSlugRune(r):
			b.WriteRune(r)
			lastDash = false
		case r == '-' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func isSlugRune(r rune) bool {
	return r == '.' || r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// ResolveSlug prefers the slug declared in metadata and falls back to the
// source file name without extension.
func ResolveSlug(declared, stem string) string {
	if s := Slugify(declared); s != "" {
		return s
	}
	if s := Slugify(stem); s != "" {
		return s
	}
	return "post"
}
