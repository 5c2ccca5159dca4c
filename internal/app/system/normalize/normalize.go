// Package normalize canonicalizes user-supplied strings before they are
// validated or stored.
package normalize

import "strings"

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and keeps its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query-string value and keeps its case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Flag reads a boolean query value. "1", "true", "yes" and "on" are true,
// in any case; everything else is false.
func Flag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
