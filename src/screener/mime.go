package screener

import (
	"context"
	"mime"
	"slices"
	"strings"
)

// mimeRule lists the declared types acceptable for a set of extensions.
type mimeRule struct {
	extensions []string
	types      []string
	label      string
}

var mimeRules = []mimeRule{
	{extensions: []string{".jpg", ".jpeg"}, types: []string{"image/jpeg", "image/jpg"}, label: "JPEG"},
	{extensions: []string{".png"}, types: []string{"image/png"}, label: "PNG"},
	{extensions: []string{".gif"}, types: []string{"image/gif"}, label: "GIF"},
	{extensions: []string{".mp4"}, types: []string{"video/mp4", "video/quicktime"}, label: "MP4"},
	{extensions: []string{".mp3"}, types: []string{"audio/mpeg", "audio/mp3"}, label: "MP3"},
}

const genericMIMEType = "application/octet-stream"

// MIMECheck verifies that the declared MIME type agrees with the extension
// for the media types it knows about.
type MIMECheck struct{}

func (MIMECheck) Name() string { return "mime" }

func (MIMECheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: "mime"}

	declared := mediaType(f.MIMEType())
	if declared == "" || declared == genericMIMEType {
		res.Warnings = append(res.Warnings, "generic or missing MIME type: unable to verify file integrity")
		return res
	}

	name := strings.ToLower(f.Name())
	for _, rule := range mimeRules {
		if !hasAnySuffix(name, rule.extensions) {
			continue
		}
		if !slices.Contains(rule.types, declared) {
			res.Threats = append(res.Threats, rule.label+" extension but declared MIME type "+declared+" does not match: possible file masquerading")
		}
		break
	}
	return res
}

// mediaType returns the lower-cased type/subtype of a declared MIME type,
// without parameters. Unparseable values are returned trimmed and lower-cased.
func mediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		return mt
	}
	return strings.ToLower(declared)
}

// primaryType returns the part of a media type before the slash.
func primaryType(declared string) string {
	mt := mediaType(declared)
	if i := strings.IndexByte(mt, '/'); i >= 0 {
		return mt[:i]
	}
	return mt
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
