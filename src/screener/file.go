package screener

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// File is a candidate upload. MIMEType is the type declared by whoever
// supplied the file and may be empty or wrong.
type File interface {
	io.ReaderAt
	Name() string
	MIMEType() string
	Size() int64
}

// BytesFile is an in-memory File.
type BytesFile struct {
	name     string
	mimeType string
	r        *bytes.Reader
}

// NewBytesFile wraps data as a File.
func NewBytesFile(name, mimeType string, data []byte) *BytesFile {
	return &BytesFile{name: name, mimeType: mimeType, r: bytes.NewReader(data)}
}

func (f *BytesFile) Name() string     { return f.name }
func (f *BytesFile) MIMEType() string { return f.mimeType }
func (f *BytesFile) Size() int64      { return f.r.Size() }

func (f *BytesFile) ReadAt(p []byte, off int64) (int, error) {
	return f.r.ReadAt(p, off)
}

// DiskFile is a File backed by an open file on disk. Callers must Close it.
type DiskFile struct {
	*os.File
	name     string
	mimeType string
	size     int64
}

// OpenFile opens path for screening. An empty mimeType is replaced with
// the type registered for the file's extension, the way a browser fills
// in File.type.
func OpenFile(path, mimeType string) (*DiskFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		fh.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}

	return &DiskFile{
		File:     fh,
		name:     filepath.Base(path),
		mimeType: mimeType,
		size:     st.Size(),
	}, nil
}

func (f *DiskFile) Name() string     { return f.name }
func (f *DiskFile) MIMEType() string { return f.mimeType }
func (f *DiskFile) Size() int64      { return f.size }

// readPrefix reads up to n leading bytes of f. A short file is not an error.
func readPrefix(f File, n int) ([]byte, error) {
	if size := f.Size(); size < int64(n) {
		n = int(max(size, 0))
	}
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}
