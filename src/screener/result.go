package screener

import "time"

// HashFailed is stored in ScanResult.ContentHash when the content could
// not be read or hashed.
const HashFailed = "hash_generation_failed"

// Status is the verdict shown for a scanned file.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusThreat  Status = "threat"
)

// CheckResult is the outcome of a single Check.
type CheckResult struct {
	CheckName string
	Threats   []string // blocking findings
	Warnings  []string // informational findings
}

// ScanResult is the outcome of screening one file. It is built once per
// Scan call and not modified afterwards.
type ScanResult struct {
	IsSafe      bool     `json:"isSafe"`
	Threats     []string `json:"threats"`
	Warnings    []string `json:"warnings"`
	ScanTimeMs  int64    `json:"scanTimeMs"`
	ContentHash string   `json:"contentHash"`

	// Duration is the unrounded scan time behind ScanTimeMs.
	Duration time.Duration `json:"-"`
}

// Status collapses the result into safe, warning or threat.
func (r ScanResult) Status() Status {
	switch {
	case !r.IsSafe:
		return StatusThreat
	case len(r.Warnings) > 0:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// BatchItem is one entry of a ScanBatch report.
type BatchItem struct {
	Name   string     `json:"name"`
	Status Status     `json:"status"`
	Result ScanResult `json:"result"`
}
