package screener

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Screener runs an ordered set of checks against a file and hashes its
// content. Unlike a blocking pipeline it never stops early: every check
// runs so the caller sees all findings at once.
type Screener struct {
	checks        []Check
	blockedHashes map[string]struct{}
	logger        *slog.Logger
}

// Option customises a Screener.
type Option func(*Screener)

// WithLogger sets the logger used for per-scan debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Screener) { s.logger = logger.With("area", "screener") }
}

// WithBlockedHashes rejects files whose SHA-256 is in hashes. Hashes are
// compared case-insensitively.
func WithBlockedHashes(hashes ...string) Option {
	return func(s *Screener) {
		for _, h := range hashes {
			s.blockedHashes[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
		}
	}
}

// New creates a Screener. Checks run in the given order.
func New(checks []Check, opts ...Option) *Screener {
	s := &Screener{
		checks:        checks,
		blockedHashes: make(map[string]struct{}),
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultChecks returns the standard check order: size, extension, name,
// MIME type, signature, content sample.
func DefaultChecks() []Check {
	content, _ := NewContentCheck(DefaultSampleSize, false, nil)
	return []Check{
		NewSizeCheck(DefaultMaxFileSize),
		NewExtensionCheck(nil),
		NameCheck{},
		MIMECheck{},
		SignatureCheck{},
		content,
	}
}

// NewDefault creates a Screener with DefaultChecks.
func NewDefault(opts ...Option) *Screener {
	return New(DefaultChecks(), opts...)
}

// Scan screens f. It never fails: unreadable content shows up as warnings
// or as ContentHash == HashFailed.
func (s *Screener) Scan(ctx context.Context, f File) ScanResult {
	start := time.Now()
	res := ScanResult{
		Threats:  []string{},
		Warnings: []string{},
	}

	for _, c := range s.checks {
		cr := c.Check(ctx, f)
		res.Threats = append(res.Threats, cr.Threats...)
		res.Warnings = append(res.Warnings, cr.Warnings...)
	}

	hash, err := contentHash(ctx, f)
	if err != nil {
		s.logger.Warn("hashing failed", "file", f.Name(), "err", err)
		hash = HashFailed
	}
	res.ContentHash = hash

	if _, blocked := s.blockedHashes[hash]; blocked {
		res.Threats = append(res.Threats, "content hash matches a known malicious file")
	}

	res.IsSafe = len(res.Threats) == 0
	res.Duration = time.Since(start)
	res.ScanTimeMs = res.Duration.Milliseconds()

	s.logger.Debug("scanned file",
		"file", f.Name(),
		"status", res.Status(),
		"threats", len(res.Threats),
		"warnings", len(res.Warnings),
		"ms", res.ScanTimeMs,
	)
	return res
}

// ScanBatch scans files one after another and reports them in input order.
func (s *Screener) ScanBatch(ctx context.Context, files []File) []BatchItem {
	items := make([]BatchItem, 0, len(files))
	for _, f := range files {
		r := s.Scan(ctx, f)
		items = append(items, BatchItem{Name: f.Name(), Status: r.Status(), Result: r})
	}
	return items
}
