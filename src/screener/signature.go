package screener

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// headerSize is how many leading bytes are compared against signatures.
const headerSize = 12

// magic is a byte pattern expected at a fixed offset.
type magic struct {
	offset int
	bytes  []byte
}

// signature identifies a file format by its leading bytes.
type signature struct {
	fileType   string
	patterns   []magic
	extensions []string
}

func (s signature) matches(header []byte) bool {
	for _, p := range s.patterns {
		end := p.offset + len(p.bytes)
		if len(header) < end || !bytes.Equal(header[p.offset:end], p.bytes) {
			return false
		}
	}
	return true
}

const executableType = "EXE"

var riff = magic{0, []byte{0x52, 0x49, 0x46, 0x46}}

// signatures is checked in order and the first match wins. WEBP, AVI and
// WAV share the RIFF prefix, so every RIFF container is reported as WEBP.
var signatures = []signature{
	{"JPEG", []magic{{0, []byte{0xFF, 0xD8, 0xFF}}}, []string{".jpg", ".jpeg"}},
	{"PNG", []magic{{0, []byte{0x89, 0x50, 0x4E, 0x47}}}, []string{".png"}},
	{"GIF", []magic{{0, []byte{0x47, 0x49, 0x46, 0x38}}}, []string{".gif"}},
	{"BMP", []magic{{0, []byte{0x42, 0x4D}}}, []string{".bmp"}},
	{"WEBP", []magic{riff}, []string{".webp"}},
	{"MP4", []magic{{0, []byte{0x00, 0x00, 0x00}}}, []string{".mp4", ".m4a", ".m4v"}},
	{"AVI", []magic{riff}, []string{".avi"}},
	{"MP3", []magic{{0, []byte{0xFF, 0xFB}}}, []string{".mp3"}},
	{"WAV", []magic{riff}, []string{".wav"}},
	{"ZIP", []magic{{0, []byte{0x50, 0x4B, 0x03, 0x04}}}, []string{".zip"}},
	{executableType, []magic{{0, []byte{0x4D, 0x5A}}}, []string{".exe", ".dll"}},
}

// SignatureCheck compares the file's magic bytes with its extension.
// Executables are always a threat; other known formats are a threat when
// the extension disagrees; unknown formats are only a warning.
type SignatureCheck struct{}

func (SignatureCheck) Name() string { return "signature" }

func (SignatureCheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: "signature"}

	header, err := readPrefix(f, headerSize)
	if err != nil {
		res.Warnings = append(res.Warnings, "unable to read file header for verification")
		return res
	}
	if len(header) == 0 {
		return res
	}

	sig, ok := matchSignature(header)
	if !ok {
		res.Warnings = append(res.Warnings, "unable to verify file signature: proceed with caution")
		return res
	}

	if sig.fileType == executableType {
		res.Threats = append(res.Threats, "executable file detected: not allowed for security reasons")
		return res
	}

	if !hasAnySuffix(strings.ToLower(f.Name()), sig.extensions) {
		res.Threats = append(res.Threats, fmt.Sprintf("file signature indicates %s but extension doesn't match", sig.fileType))
	}
	return res
}

// matchSignature returns the first signature matching header.
func matchSignature(header []byte) (signature, bool) {
	for _, sig := range signatures {
		if sig.matches(header) {
			return sig, true
		}
	}
	return signature{}, false
}
