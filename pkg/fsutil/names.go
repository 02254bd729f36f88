package fsutil

import (
	"strings"
	"unicode/utf8"

	"github.com/cperrin88/beatsync/pkg/platform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFileName removes characters that are invalid in a single path
// component on the given platform. The result is NFC-normalised, has no
// leading or trailing spaces, and no trailing dots.
func SanitizeFileName(name string, limits platform.Limits) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == utf8.RuneError || limits.IsInvalidNameRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	return strings.TrimRight(out, ". ")
}

// PathLength returns the length of p in characters, the unit path limits are
// expressed in.
func PathLength(p string) int {
	return utf8.RuneCountInString(p)
}

// TruncateRunes shortens s to at most n characters without splitting a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
