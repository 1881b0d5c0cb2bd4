// Package screener triages candidate uploads before they are accepted for
// analysis. It looks at size, name, declared MIME type, leading bytes and a
// short text sample, and never decodes the media payload itself. A clean
// verdict only means none of these cheap heuristics fired.
package screener

import "context"

// Check inspects one aspect of a file. Checks never fail: anything they
// cannot determine is reported as a warning.
type Check interface {
	// Name returns a short identifier used in logs and metrics.
	Name() string

	// Check inspects f and returns its findings.
	Check(ctx context.Context, f File) CheckResult
}
