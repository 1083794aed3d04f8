// Package sanitize strips markup from citizen-entered text before it is
// stored. Report titles, descriptions, comments, and messages are plain
// text; anything that looks like HTML is removed, not escaped.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text returns s with all HTML elements and attributes removed.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
