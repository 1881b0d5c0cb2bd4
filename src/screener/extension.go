package screener

import (
	"context"
	"fmt"
	"strings"
)

// builtInBlockedExtensions are executable and script types that are never
// accepted as media.
var builtInBlockedExtensions = []string{
	".exe", ".bat", ".cmd", ".com", ".pif", ".scr", ".vbs",
	".js", ".jar", ".msi", ".app", ".deb", ".rpm",
}

// ExtensionCheck matches the file name against a deny-list of extensions.
// Besides a plain suffix match it reports double extensions: a blocked
// extension hidden inside the name ("invoice.exe.jpg") or one disguised
// behind a harmless-looking one ("invoice.pdf.exe").
type ExtensionCheck struct {
	blocked []string
}

// NewExtensionCheck builds the deny-list from the built-in extensions plus
// extra. Extras are lower-cased and given a leading dot if missing.
func NewExtensionCheck(extra []string) *ExtensionCheck {
	blocked := make([]string, 0, len(builtInBlockedExtensions)+len(extra))
	blocked = append(blocked, builtInBlockedExtensions...)
	for _, ext := range extra {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		blocked = append(blocked, ext)
	}
	return &ExtensionCheck{blocked: blocked}
}

func (c *ExtensionCheck) Name() string { return "extension" }

func (c *ExtensionCheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: c.Name()}
	name := strings.ToLower(f.Name())

	for _, ext := range c.blocked {
		if strings.HasSuffix(name, ext) {
			res.Threats = append(res.Threats, fmt.Sprintf("executable file type detected: %s is not allowed", ext))
			if inner := innerExtension(strings.TrimSuffix(name, ext)); inner != "" {
				res.Threats = append(res.Threats, fmt.Sprintf("double extension detected: %s disguised behind %s, possible masquerading", ext, inner))
			}
		}
		if strings.Contains(name, ext+".") {
			res.Threats = append(res.Threats, fmt.Sprintf("double extension detected: %s hidden inside file name, possible masquerading", ext))
		}
	}
	return res
}

// innerExtension returns the extension of base ("invoice.pdf" -> ".pdf"),
// ignoring a leading dot and a trailing one.
func innerExtension(base string) string {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}
