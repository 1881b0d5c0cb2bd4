package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	cfg := `{
		"upstream": {"transport": "http", "http": {"addr": ":9090", "path": "/scan"}},
		"screening": {"maxFileSizeBytes": 2048, "extraBlockedExtensions": [".docm"]},
		"logging": {"level": "debug", "bufferSize": 10}
	}`

	path := writeTemp(t, "config.json", cfg)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Upstream.Transport != TransportHTTP {
		t.Errorf("upstream transport = %q, want %q", got.Upstream.Transport, TransportHTTP)
	}
	if got.Upstream.HTTP.Addr != ":9090" || got.Upstream.HTTP.Path != "/scan" {
		t.Errorf("http = %+v", got.Upstream.HTTP)
	}
	if *got.Screening.MaxFileSizeBytes != 2048 {
		t.Errorf("maxFileSizeBytes = %d, want 2048", *got.Screening.MaxFileSizeBytes)
	}
	if len(got.Screening.ExtraBlockedExtensions) != 1 {
		t.Errorf("extraBlockedExtensions = %v", got.Screening.ExtraBlockedExtensions)
	}
	if got.Logging.Level != "debug" || *got.Logging.BufferSize != 10 {
		t.Errorf("logging = %+v", got.Logging)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTemp(t, "config.json", `{}`)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Upstream.Transport != TransportStdio {
		t.Errorf("default upstream transport = %q, want %q", got.Upstream.Transport, TransportStdio)
	}
	if got.Upstream.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("default http addr = %q, want %q", got.Upstream.HTTP.Addr, DefaultHTTPAddr)
	}
	if got.Upstream.HTTP.Path != DefaultHTTPPath {
		t.Errorf("default http path = %q, want %q", got.Upstream.HTTP.Path, DefaultHTTPPath)
	}
	if got.Upstream.HTTP.MetricsPath != DefaultMetricsPath {
		t.Errorf("default metrics path = %q, want %q", got.Upstream.HTTP.MetricsPath, DefaultMetricsPath)
	}
	if *got.Screening.MaxFileSizeBytes != DefaultMaxFileSizeBytes {
		t.Errorf("default maxFileSizeBytes = %d", *got.Screening.MaxFileSizeBytes)
	}
	if *got.Screening.SampleBytes != DefaultSampleBytes {
		t.Errorf("default sampleBytes = %d", *got.Screening.SampleBytes)
	}
	if *got.Screening.DisableBuiltInContentPatterns {
		t.Error("default disableBuiltInContentPatterns should be false")
	}
	if *got.Resilience.MaxAttempts != 3 || *got.Resilience.DelayMs != 1000 || !*got.Resilience.Backoff {
		t.Errorf("default retry = %d/%d/%v", *got.Resilience.MaxAttempts, *got.Resilience.DelayMs, *got.Resilience.Backoff)
	}
	if *got.Resilience.BreakerThreshold != 5 || got.Resilience.BreakerTimeout() != time.Minute {
		t.Errorf("default breaker = %d/%v", *got.Resilience.BreakerThreshold, got.Resilience.BreakerTimeout())
	}
	if *got.Logging.BufferSize != DefaultBufferSize || got.Logging.Level != DefaultLogLevel {
		t.Errorf("default logging = %+v", got.Logging)
	}
}

func TestDefault_MatchesEmptyFile(t *testing.T) {
	got := Default()
	if err := validate(got); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if got.Upstream.Transport != TransportStdio {
		t.Errorf("transport = %q", got.Upstream.Transport)
	}
}

func TestLoad_YAML(t *testing.T) {
	cfg := `
upstream:
  transport: http
  http:
    addr: ":7070"
screening:
  blockedHashes:
    - e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
resilience:
  maxAttempts: 5
  backoff: false
logging:
  level: warn
`
	for _, name := range []string{"config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			got, err := Load(writeTemp(t, name, cfg))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Upstream.HTTP.Addr != ":7070" {
				t.Errorf("addr = %q", got.Upstream.HTTP.Addr)
			}
			if len(got.Screening.BlockedHashes) != 1 {
				t.Errorf("blockedHashes = %v", got.Screening.BlockedHashes)
			}
			opts := got.Resilience.RetryOptions()
			if opts.MaxAttempts != 5 || opts.Backoff || opts.Delay != time.Second {
				t.Errorf("retry options = %+v", opts)
			}
			if got.Logging.Level != "warn" {
				t.Errorf("level = %q", got.Logging.Level)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		wantErr string
	}{
		{"transport", `{"upstream": {"transport": "grpc"}}`, "upstream transport"},
		{"path", `{"upstream": {"http": {"path": "mcp"}}}`, "must start with /"},
		{"metrics clash", `{"upstream": {"http": {"path": "/x", "metricsPath": "/x"}}}`, "metricsPath"},
		{"size", `{"screening": {"maxFileSizeBytes": 0}}`, "maxFileSizeBytes"},
		{"sample", `{"screening": {"sampleBytes": -1}}`, "sampleBytes"},
		{"extension", `{"screening": {"extraBlockedExtensions": ["."]}}`, "extraBlockedExtensions[0]"},
		{"regex", `{"screening": {"customContentPatterns": ["[invalid"]}}`, "customContentPatterns[0]"},
		{"hash length", `{"screening": {"blockedHashes": ["abc"]}}`, "blockedHashes[0]"},
		{"hash hex", `{"screening": {"blockedHashes": ["` + strings.Repeat("z", 64) + `"]}}`, "blockedHashes[0]"},
		{"attempts", `{"resilience": {"maxAttempts": 0}}`, "maxAttempts"},
		{"delay", `{"resilience": {"delayMs": -5}}`, "delayMs"},
		{"threshold", `{"resilience": {"breakerThreshold": 0}}`, "breakerThreshold"},
		{"breaker timeout", `{"resilience": {"breakerTimeoutMs": 0}}`, "breakerTimeoutMs"},
		{"buffer", `{"logging": {"bufferSize": 0}}`, "bufferSize"},
		{"level", `{"logging": {"level": "verbose"}}`, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, "config.json", tt.cfg))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := Load(writeTemp(t, "config.json", `{not json}`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTemp(t, "config.yaml", "upstream: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
