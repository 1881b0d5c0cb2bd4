package screener

import "context"

// DefaultMaxFileSize is the largest upload accepted without a threat.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// SizeCheck rejects empty files and files over a size limit.
type SizeCheck struct {
	MaxBytes int64
}

// NewSizeCheck creates a SizeCheck. A non-positive limit uses DefaultMaxFileSize.
func NewSizeCheck(maxBytes int64) *SizeCheck {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	return &SizeCheck{MaxBytes: maxBytes}
}

func (c *SizeCheck) Name() string { return "size" }

func (c *SizeCheck) Check(_ context.Context, f File) CheckResult {
	res := CheckResult{CheckName: c.Name()}

	size := f.Size()
	if size == 0 {
		res.Threats = append(res.Threats, "empty file detected: potential corruption or malicious intent")
	}
	if size > c.MaxBytes {
		res.Threats = append(res.Threats, "file exceeds safe size limit")
	}
	return res
}
