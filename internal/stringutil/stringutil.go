// Package stringutil sanitizes strings coming from torrent metadata for
// display and logging.
package stringutil

import (
	"strings"
	"unicode"
)

// Asciify replaces bytes outside the printable ASCII range with '_'.
func Asciify(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c < 32 || c >= 127 {
			b[i] = '_'
		}
	}
	return string(b)
}

// Printable replaces non-printable runes with the Unicode replacement
// character.
func Printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return unicode.ReplacementChar
	}, s)
}
