// internal/app/system/sanitize/sanitize.go
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips all markup; review notes and contact text are plain text.
var strict = bluemonday.StrictPolicy()

// Text strips any HTML from free-form user input and trims whitespace.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
