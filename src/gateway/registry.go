// Package gateway exposes the screener as MCP tools and wires it to its
// supporting services.
package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/config"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/logbuffer"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/metrics"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/screener"
)

const (
	toolScanFile         = "scan_file"
	toolScanBatch        = "scan_batch"
	toolSanitizeFileName = "sanitize_filename"
	toolRecentLogs       = "recent_logs"

	defaultLogLimit = 50
)

// FileInput identifies one file to screen: either a path readable by the
// server or inline base64 content with a name.
type FileInput struct {
	Path     string `json:"path,omitempty" jsonschema:"path of a file readable by the server"`
	Content  string `json:"content,omitempty" jsonschema:"base64-encoded file content, used instead of path"`
	Name     string `json:"name,omitempty" jsonschema:"file name, required with content"`
	MIMEType string `json:"mime_type,omitempty" jsonschema:"declared MIME type; derived from the extension for paths when empty"`
}

// FileReport is the scan_file result.
type FileReport struct {
	Name   string              `json:"name"`
	Status screener.Status     `json:"status"`
	Result screener.ScanResult `json:"result"`
}

// BatchInput is the scan_batch argument.
type BatchInput struct {
	Files []FileInput `json:"files" jsonschema:"files to screen, reported in the same order"`
}

// BatchReport is the scan_batch result.
type BatchReport struct {
	BatchID string               `json:"batchId"`
	Items   []screener.BatchItem `json:"items"`
	Safe    int                  `json:"safe"`
	Warning int                  `json:"warning"`
	Threat  int                  `json:"threat"`
}

// SanitizeInput is the sanitize_filename argument.
type SanitizeInput struct {
	Name string `json:"name" jsonschema:"file name to sanitize"`
}

// SanitizeOutput is the sanitize_filename result.
type SanitizeOutput struct {
	Sanitized string `json:"sanitized"`
}

// LogsInput is the recent_logs argument.
type LogsInput struct {
	Level string `json:"level,omitempty" jsonschema:"only return entries of this level (debug, info, warn, error)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of newest entries to return"`
}

// LogsOutput is the recent_logs result.
type LogsOutput struct {
	Entries []logbuffer.Entry `json:"entries"`
}

// Registry registers the screening tools on an MCP server.
type Registry struct {
	server   *mcp.Server
	screener *screener.Screener
	logs     *logbuffer.Buffer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRegistry creates a registry. logs and m may be nil; recent_logs is
// only registered when logs is set.
func NewRegistry(
	server *mcp.Server,
	scr *screener.Screener,
	logs *logbuffer.Buffer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		server:   server,
		screener: scr,
		logs:     logs,
		metrics:  m,
		logger:   logger.With("area", "registry"),
	}
}

// Register adds the tools to the server and returns how many were added.
func (r *Registry) Register() int {
	mcp.AddTool(r.server, &mcp.Tool{
		Name:        toolScanFile,
		Description: "Screen one file for executable content, disguised extensions, MIME and signature mismatches and embedded scripts.",
	}, r.scanFile)

	mcp.AddTool(r.server, &mcp.Tool{
		Name:        toolScanBatch,
		Description: "Screen several files and report a safe, warning or threat status for each.",
	}, r.scanBatch)

	mcp.AddTool(r.server, &mcp.Tool{
		Name:        toolSanitizeFileName,
		Description: "Rewrite a file name so it is safe to store.",
	}, r.sanitizeFileName)
	count := 3

	if r.logs != nil {
		mcp.AddTool(r.server, &mcp.Tool{
			Name:        toolRecentLogs,
			Description: "Return the most recent buffered log entries.",
		}, r.recentLogs)
		count++
	}

	r.logger.Info("registered tools", "count", count)
	return count
}

func (r *Registry) scanFile(ctx context.Context, _ *mcp.CallToolRequest, in FileInput) (*mcp.CallToolResult, FileReport, error) {
	f, closeFn, err := openInput(in)
	if err != nil {
		return nil, FileReport{}, err
	}
	defer closeFn()

	res := r.screener.Scan(ctx, f)
	r.observe(f.Name(), res)
	return nil, FileReport{Name: f.Name(), Status: res.Status(), Result: res}, nil
}

func (r *Registry) scanBatch(ctx context.Context, _ *mcp.CallToolRequest, in BatchInput) (*mcp.CallToolResult, BatchReport, error) {
	if len(in.Files) == 0 {
		return nil, BatchReport{}, errors.New("files must not be empty")
	}

	files := make([]screener.File, 0, len(in.Files))
	closers := make([]func(), 0, len(in.Files))
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()
	for i, fi := range in.Files {
		f, closeFn, err := openInput(fi)
		if err != nil {
			return nil, BatchReport{}, fmt.Errorf("files[%d]: %w", i, err)
		}
		files = append(files, f)
		closers = append(closers, closeFn)
	}

	report := BatchReport{
		BatchID: uuid.NewString(),
		Items:   r.screener.ScanBatch(ctx, files),
	}
	logger := r.logger.With("batch", report.BatchID)

	for _, item := range report.Items {
		r.observe(item.Name, item.Result)
		switch item.Status {
		case screener.StatusSafe:
			report.Safe++
		case screener.StatusWarning:
			report.Warning++
		case screener.StatusThreat:
			report.Threat++
		}
	}

	logger.Info("batch screened",
		"files", len(report.Items),
		"safe", report.Safe,
		"warning", report.Warning,
		"threat", report.Threat,
	)
	return nil, report, nil
}

func (r *Registry) sanitizeFileName(_ context.Context, _ *mcp.CallToolRequest, in SanitizeInput) (*mcp.CallToolResult, SanitizeOutput, error) {
	return nil, SanitizeOutput{Sanitized: screener.SanitizeFileName(in.Name)}, nil
}

func (r *Registry) recentLogs(_ context.Context, _ *mcp.CallToolRequest, in LogsInput) (*mcp.CallToolResult, LogsOutput, error) {
	var entries []logbuffer.Entry
	if in.Level != "" {
		level, err := config.ParseLevel(in.Level)
		if err != nil {
			return nil, LogsOutput{}, err
		}
		entries = r.logs.EntriesAt(level)
	} else {
		entries = r.logs.Entries()
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if entries == nil {
		entries = []logbuffer.Entry{}
	}
	return nil, LogsOutput{Entries: entries}, nil
}

// observe records metrics for one scan result and logs threats.
func (r *Registry) observe(name string, res screener.ScanResult) {
	if r.metrics != nil {
		r.metrics.ObserveScan(res)
	}
	if !res.IsSafe {
		r.logger.Warn("threat detected", "file", name, "threats", res.Threats, "hash", res.ContentHash)
	}
}

// openInput resolves a FileInput to a File. The returned func releases it.
func openInput(in FileInput) (screener.File, func(), error) {
	switch {
	case in.Path != "" && in.Content != "":
		return nil, nil, errors.New("set either path or content, not both")
	case in.Path != "":
		f, err := screener.OpenFile(in.Path, in.MIMEType)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	case in.Content != "":
		if in.Name == "" {
			return nil, nil, errors.New("name is required with content")
		}
		data, err := base64.StdEncoding.DecodeString(in.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding content: %w", err)
		}
		return screener.NewBytesFile(in.Name, in.MIMEType, data), func() {}, nil
	default:
		return nil, nil, errors.New("path or content is required")
	}
}

// BuildScreener constructs a Screener from the screening config. Check
// order: size, extension, name, MIME, signature, content.
func BuildScreener(cfg config.ScreeningConfig, logger *slog.Logger) (*screener.Screener, error) {
	content, err := screener.NewContentCheck(
		derefInt(cfg.SampleBytes, screener.DefaultSampleSize),
		deref(cfg.DisableBuiltInContentPatterns),
		cfg.CustomContentPatterns,
	)
	if err != nil {
		return nil, fmt.Errorf("content check: %w", err)
	}

	maxSize := screener.DefaultMaxFileSize
	if cfg.MaxFileSizeBytes != nil {
		maxSize = *cfg.MaxFileSizeBytes
	}

	checks := []screener.Check{
		screener.NewSizeCheck(maxSize),
		screener.NewExtensionCheck(cfg.ExtraBlockedExtensions),
		screener.NameCheck{},
		screener.MIMECheck{},
		screener.SignatureCheck{},
		content,
	}
	return screener.New(checks,
		screener.WithLogger(logger),
		screener.WithBlockedHashes(cfg.BlockedHashes...),
	), nil
}

func deref(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefInt(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}
