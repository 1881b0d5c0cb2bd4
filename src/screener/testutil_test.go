package screener

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

var (
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0, 1}
	exeHeader  = []byte{0x4D, 0x5A, 0x90, 0, 3, 0, 0, 0, 4, 0, 0, 0}
)

// brokenFile fails every read.
type brokenFile struct {
	name, mimeType string
	size           int64
}

func (f brokenFile) Name() string     { return f.name }
func (f brokenFile) MIMEType() string { return f.mimeType }
func (f brokenFile) Size() int64      { return f.size }
func (f brokenFile) ReadAt([]byte, int64) (int, error) {
	return 0, errors.New("device not ready")
}

// sizedFile reports an arbitrary size without holding the bytes.
type sizedFile struct {
	*BytesFile
	size int64
}

func (f sizedFile) Size() int64 { return f.size }

func containsSubstring(list []string, sub string) bool {
	return slices.ContainsFunc(list, func(s string) bool {
		return strings.Contains(s, sub)
	})
}

func runCheck(t *testing.T, c Check, f File) CheckResult {
	t.Helper()
	res := c.Check(context.Background(), f)
	if res.CheckName != c.Name() {
		t.Errorf("CheckName = %q, want %q", res.CheckName, c.Name())
	}
	return res
}
