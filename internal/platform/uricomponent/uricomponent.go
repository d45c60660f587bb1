// Package uricomponent encodes single URL components the way browsers'
// encodeURIComponent does, so values survive both paths and query strings.
package uricomponent

import (
	"net/url"
	"strings"
)

// keepMarks restores the characters encodeURIComponent leaves alone but
// url.QueryEscape escapes, and turns QueryEscape's '+' for a space into %20.
var keepMarks = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Encode escapes s for use as one path segment or one query value.
// Unreserved characters and !'()* pass through; spaces become %20 and '+' becomes %2B,
// so no decoder can confuse the two.
func Encode(s string) string {
	return keepMarks.Replace(url.QueryEscape(s))
}

// Decode reverses Encode. A literal '+' is kept as '+'.
func Decode(s string) (string, error) {
	return url.PathUnescape(s)
}
