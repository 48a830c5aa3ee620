// Package strings provides small string and slice helpers
package strings

import (
	std "strings"

	"golang.org/x/text/unicode/norm"
)

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustPrefix normalizes and asserts a root path like /listings
// ensures a single leading slash and no trailing slash except for the root itself
// panics if the input is empty after trimming
func MustPrefix(s string) string {
	s = std.TrimSpace(s)
	s = "/" + std.Trim(s, " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Clean trims s and converts it to Unicode NFC so composed and decomposed
// input compare equal
func Clean(s string) string {
	return norm.NFC.String(std.TrimSpace(s))
}

var likeEscaper = std.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so s matches literally.
// The result is meant for patterns using the default backslash escape
func EscapeLike(s string) string { return likeEscaper.Replace(s) }

// Contains wraps s as a literal substring pattern for LIKE/ILIKE
func Contains(s string) string { return "%" + EscapeLike(s) + "%" }

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SQLNull returns nil if s is blank/whitespace, else the original string.
// Useful for query args where NULL is desired for blanks
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Deref returns "" if ps is nil, else *ps.
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}
