package utils

import "github.com/microcosm-cc/bluemonday"

// User-generated content policy applied to bios, thread bodies and comments.
// Keeps basic formatting, strips scripts and event handlers.
var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans user-supplied HTML before it is stored.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
