// Package strings holds the small string helpers modules and repos share
package strings

import std "strings"

// MustString returns s when it has non whitespace content and panics otherwise
// name tells the reader of the panic what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// SQLNull maps a blank string to a NULL query argument
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Deref reads a nullable column scanned into *string, nil as ""
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}
