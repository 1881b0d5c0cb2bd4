package screener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

func pngFile(name, mimeType string) *BytesFile {
	data := append([]byte{}, pngHeader...)
	data = append(data, []byte("IHDR rest of the image")...)
	return NewBytesFile(name, mimeType, data)
}

func TestScan_SafePNG(t *testing.T) {
	res := NewDefault().Scan(context.Background(), pngFile("photo.png", "image/png"))
	if !res.IsSafe {
		t.Fatalf("expected safe, threats = %v", res.Threats)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
	if res.Status() != StatusSafe {
		t.Errorf("status = %s, want safe", res.Status())
	}
	if !hexHash.MatchString(res.ContentHash) {
		t.Errorf("hash = %q, want 64 lowercase hex chars", res.ContentHash)
	}
	if res.Duration < 0 {
		t.Errorf("duration = %v, want >= 0", res.Duration)
	}
	if res.ScanTimeMs != res.Duration.Milliseconds() {
		t.Errorf("scan time = %dms, want %dms", res.ScanTimeMs, res.Duration.Milliseconds())
	}
}

func TestScan_EmptyFile(t *testing.T) {
	res := NewDefault().Scan(context.Background(), NewBytesFile("empty.jpg", "image/jpeg", nil))
	if res.IsSafe {
		t.Fatal("empty file must not be safe")
	}
	if !containsSubstring(res.Threats, "empty file") {
		t.Errorf("threats = %v, want empty file threat", res.Threats)
	}
	// SHA-256 of nothing.
	if res.ContentHash != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("hash = %q", res.ContentHash)
	}
}

func TestScan_BlockedExtension(t *testing.T) {
	res := NewDefault().Scan(context.Background(), NewBytesFile("evil.exe", "application/x-msdownload", []byte("hello")))
	if res.IsSafe {
		t.Fatal("evil.exe must not be safe")
	}
	if res.Status() != StatusThreat {
		t.Errorf("status = %s, want threat", res.Status())
	}
}

func TestScan_DoubleExtension(t *testing.T) {
	res := NewDefault().Scan(context.Background(), NewBytesFile("invoice.pdf.exe", "", []byte("hello")))
	if !containsSubstring(res.Threats, "double extension") {
		t.Errorf("threats = %v, want double extension threat", res.Threats)
	}
	if !containsSubstring(res.Threats, "executable file type") {
		t.Errorf("threats = %v, want suffix threat", res.Threats)
	}
}

func TestScan_PNGNamedJPG(t *testing.T) {
	res := NewDefault().Scan(context.Background(), pngFile("photo.jpg", "image/jpeg"))
	if res.IsSafe {
		t.Fatal("PNG bytes named .jpg must not be safe")
	}
	if !containsSubstring(res.Threats, "indicates PNG") {
		t.Errorf("threats = %v, want signature mismatch", res.Threats)
	}
}

func TestScan_ExecutableSignature(t *testing.T) {
	for _, name := range []string{"photo.jpg", "song.mp3", "setup.exe", "noext"} {
		t.Run(name, func(t *testing.T) {
			res := NewDefault().Scan(context.Background(), NewBytesFile(name, "", exeHeader))
			if res.IsSafe {
				t.Errorf("MZ header in %s must not be safe", name)
			}
		})
	}
}

func TestScan_WarningsDoNotBlock(t *testing.T) {
	res := NewDefault().Scan(context.Background(), NewBytesFile("notes.txt", "", []byte("see %20 and eval(x)")))
	if !res.IsSafe {
		t.Fatalf("warnings only, got threats %v", res.Threats)
	}
	if len(res.Warnings) < 3 {
		t.Errorf("warnings = %v, want mime + signature + content warnings", res.Warnings)
	}
	if res.Status() != StatusWarning {
		t.Errorf("status = %s, want warning", res.Status())
	}
}

func TestScan_RunsEveryCheck(t *testing.T) {
	// Blocked extension, MIME mismatch and signature mismatch all at once.
	res := NewDefault().Scan(context.Background(), NewBytesFile("x.exe.png", "image/gif", jpegHeader))
	for _, want := range []string{"double extension", "PNG extension", "indicates JPEG"} {
		if !containsSubstring(res.Threats, want) {
			t.Errorf("threats = %v, want one containing %q", res.Threats, want)
		}
	}
}

func TestScan_UnreadableFile(t *testing.T) {
	res := NewDefault().Scan(context.Background(), brokenFile{name: "a.png", mimeType: "image/png", size: 64})
	if res.ContentHash != HashFailed {
		t.Errorf("hash = %q, want %q", res.ContentHash, HashFailed)
	}
	if !res.IsSafe {
		t.Errorf("read failures must degrade to warnings, got threats %v", res.Threats)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected warnings for unreadable file")
	}
}

func TestScan_CancelledContextFailsHashOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewDefault().Scan(ctx, pngFile("photo.png", "image/png"))
	if res.ContentHash != HashFailed {
		t.Errorf("hash = %q, want %q", res.ContentHash, HashFailed)
	}
}

func TestScan_BlockedHash(t *testing.T) {
	f := pngFile("photo.png", "image/png")
	data := make([]byte, f.Size())
	_, _ = f.ReadAt(data, 0)
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	s := NewDefault(WithBlockedHashes(" " + hexUpper(hash) + " "))
	res := s.Scan(context.Background(), f)
	if res.IsSafe {
		t.Fatal("known malicious hash must not be safe")
	}
	if !containsSubstring(res.Threats, "known malicious") {
		t.Errorf("threats = %v", res.Threats)
	}
}

func TestScan_ResultSlicesNeverNil(t *testing.T) {
	res := New(nil).Scan(context.Background(), NewBytesFile("a", "", []byte("x")))
	if res.Threats == nil || res.Warnings == nil {
		t.Errorf("threats/warnings must be empty slices, got %#v / %#v", res.Threats, res.Warnings)
	}
}

func TestScanBatch_PreservesOrder(t *testing.T) {
	files := []File{
		pngFile("a.png", "image/png"),
		NewBytesFile("b.exe", "", []byte("x")),
		NewBytesFile("c.txt", "text/plain", []byte("hello")),
	}

	items := NewDefault().ScanBatch(context.Background(), files)
	want := []struct {
		name   string
		status Status
	}{
		{"a.png", StatusSafe},
		{"b.exe", StatusThreat},
		{"c.txt", StatusWarning},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %d, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Name != w.name || items[i].Status != w.status {
			t.Errorf("items[%d] = %s/%s, want %s/%s", i, items[i].Name, items[i].Status, w.name, w.status)
		}
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := OpenFile(path, "")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if f.Name() != "photo.png" {
		t.Errorf("name = %q", f.Name())
	}
	if f.MIMEType() != "image/png" {
		t.Errorf("mime = %q, want image/png from extension", f.MIMEType())
	}
	if f.Size() != int64(len(pngHeader)) {
		t.Errorf("size = %d", f.Size())
	}

	res := NewDefault().Scan(context.Background(), f)
	if !res.IsSafe {
		t.Errorf("threats = %v", res.Threats)
	}
}

func TestOpenFile_Errors(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.png"), ""); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := OpenFile(t.TempDir(), ""); err == nil {
		t.Error("expected error for directory")
	}
}

func hexUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
