package utils

import (
	"strings"
	"unicode"
)

// FormatFilename keeps letters, digits, spaces and parentheses and trims
// surrounding whitespace. Every path component derived from a title must go
// through it, otherwise section files will not be found again on resume.
func FormatFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || isDigit(r) || r == ' ' || r == '(' || r == ')' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// fractions are other numbers that do not count as digits.
var fractions = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00bc, Hi: 0x00be, Stride: 1},
		{Lo: 0x2150, Hi: 0x215f, Stride: 1},
		{Lo: 0x2189, Hi: 0x2189, Stride: 1},
	},
}

// isDigit accepts decimal digits plus digit forms such as ² and ①.
func isDigit(r rune) bool {
	if unicode.IsDigit(r) {
		return true
	}
	return unicode.Is(unicode.No, r) && !unicode.Is(fractions, r)
}
