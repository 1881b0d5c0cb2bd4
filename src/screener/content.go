package screener

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
)

// DefaultSampleSize is how many leading bytes are searched for embedded code.
const DefaultSampleSize = 1024

type contentPattern struct {
	re      *regexp.Regexp
	message string
}

var builtInContentPatterns = []contentPattern{
	{regexp.MustCompile(`(?i)<script`), "embedded script tag detected"},
	{regexp.MustCompile(`(?i)eval\(`), "eval function detected"},
	{regexp.MustCompile(`(?i)document\.write`), "document.write detected"},
	{regexp.MustCompile(`(?i)onclick|onload|onerror`), "event handler detected"},
	{regexp.MustCompile(`(?i)\\x[0-9a-f]{2}`), "hex encoded content detected"},
	{regexp.MustCompile(`(?i)%[0-9a-f]{2}`), "URL encoded content detected"},
}

// ContentCheck decodes a leading sample of the file as text and looks for
// script-like content. Every hit is a warning, never a threat.
type ContentCheck struct {
	sampleSize int
	patterns   []contentPattern
}

// NewContentCheck builds a content check. If disableBuiltIn is false the
// built-in patterns are included; customPatterns are always appended and
// compiled case-insensitively.
func NewContentCheck(sampleSize int, disableBuiltIn bool, customPatterns []string) (*ContentCheck, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	var patterns []contentPattern
	if !disableBuiltIn {
		patterns = append(patterns, builtInContentPatterns...)
	}
	for _, p := range customPatterns {
		src := p
		if !strings.HasPrefix(src, "(?i)") {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compiling content pattern %q: %w", p, err)
		}
		patterns = append(patterns, contentPattern{re: re, message: fmt.Sprintf("custom pattern %q matched", p)})
	}

	return &ContentCheck{sampleSize: sampleSize, patterns: patterns}, nil
}

func (c *ContentCheck) Name() string { return "content" }

func (c *ContentCheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: c.Name()}

	sample, err := readPrefix(f, c.sampleSize)
	if err != nil {
		res.Warnings = append(res.Warnings, "unable to sample file content for suspicious patterns")
		return res
	}

	text := decodeLenient(sample)
	for _, p := range c.patterns {
		if p.re.MatchString(text) {
			res.Warnings = append(res.Warnings, p.message)
		}
	}

	if primaryType(f.MIMEType()) == "text" && bytes.IndexByte(sample, 0x00) >= 0 {
		res.Warnings = append(res.Warnings, "null bytes detected in text file: suspicious")
	}
	return res
}

// decodeLenient decodes b as UTF-8, substituting U+FFFD for invalid
// sequences instead of failing.
func decodeLenient(b []byte) string {
	out, err := xunicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
