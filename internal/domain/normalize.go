package domain

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/norm"
)

// nonSpacingMarks are the combining marks left apart by NFD decomposition.
// Normalize is called concurrently, so only stateless forms are used: a shared
// transform.Chain is not safe for concurrent use.
var nonSpacingMarks = runes.In(unicode.Mn)

// Normalize prepares a human-entered value for exact comparison:
// - spaces and hyphens are dropped (so "Jean-Luc" == "jean luc" == "JEANLUC")
// - case is folded and diacritics are removed
// - a value that reads as an unsigned 32-bit number loses its leading zeros
//
// It never fails; an empty or blank input yields "".
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = norm.NFC.String(strings.Map(func(r rune) rune {
		if nonSpacingMarks.Contains(r) {
			return -1
		}
		return r
	}, norm.NFD.String(s)))
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return s
}

// NormalizeOpt is Normalize for optional values; nil yields "".
func NormalizeOpt(s *string) string {
	if s == nil {
		return ""
	}
	return Normalize(*s)
}

// ParseMembershipNumber reads a membership number as an unsigned 32-bit integer,
// the way spreadsheet tools tend to rewrite it (e.g. "0123" -> 123).
func ParseMembershipNumber(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
