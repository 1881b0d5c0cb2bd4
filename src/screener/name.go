package screener

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NameCheck looks for characters that make a file name display differently
// from what it is, such as a right-to-left override (U+202E) that makes
// "photo<RLO>gpj.exe" render as "photoexe.jpg".
type NameCheck struct{}

func (NameCheck) Name() string { return "name" }

func (NameCheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: "name"}
	name := f.Name()

	var hidden []string
	for _, r := range name {
		if isHiddenRune(r) {
			hidden = append(hidden, fmt.Sprintf("U+%04X", r))
		}
	}
	if len(hidden) > 0 {
		res.Threats = append(res.Threats, fmt.Sprintf(
			"file name contains invisible or control characters (%s), possible extension spoofing",
			strings.Join(hidden, ", ")))
	}

	if normalized := norm.NFKC.String(name); normalized != name && len(hidden) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("file name uses look-alike characters, normalizes to %q", normalized))
	}
	return res
}

// isHiddenRune reports format, private-use and control characters. These
// never belong in a file name.
func isHiddenRune(r rune) bool {
	return unicode.In(r, unicode.Cf, unicode.Co, unicode.Cc)
}
