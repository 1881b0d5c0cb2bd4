package screener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ctxReader stops a long copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// contentHash returns the lowercase hex SHA-256 of the whole file.
func contentHash(ctx context.Context, f File) (string, error) {
	h := sha256.New()
	src := io.NewSectionReader(f, 0, f.Size())
	if _, err := io.Copy(h, ctxReader{ctx: ctx, r: src}); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
