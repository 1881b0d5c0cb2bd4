package screener

import (
	"regexp"
	"strings"
)

// MaxFileNameLength is the longest name SanitizeFileName returns.
const MaxFileNameLength = 255

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	dotRuns         = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFileName makes a user-supplied name safe to use in generated
// artifacts: characters outside [A-Za-z0-9._-] become '_', runs of dots
// collapse to one, a leading dot becomes '_', and the result is cut to
// MaxFileNameLength characters.
func SanitizeFileName(name string) string {
	out := unsafeNameChars.ReplaceAllString(name, "_")
	out = dotRuns.ReplaceAllString(out, ".")
	if strings.HasPrefix(out, ".") {
		out = "_" + out[1:]
	}
	if len(out) > MaxFileNameLength {
		out = out[:MaxFileNameLength]
	}
	return out
}
