// Package htmlsanitize cleans user-authored record content before it is
// stored. Record bodies allow a user-generated-content subset of HTML; titles
// are reduced to plain text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy = newContentPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize returns record content with unsafe markup removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return contentPolicy.Sanitize(s)
}

// PlainText strips every tag from s and trims surrounding space. The result
// is unescaped text, not HTML.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
