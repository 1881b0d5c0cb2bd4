package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/resilience"
)

// Config is the top-level screener configuration loaded from JSON or YAML.
type Config struct {
	Upstream   UpstreamConfig   `json:"upstream" yaml:"upstream"`
	Screening  ScreeningConfig  `json:"screening" yaml:"screening"`
	Resilience ResilienceConfig `json:"resilience" yaml:"resilience"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// UpstreamConfig controls how MCP clients connect to the screener.
type UpstreamConfig struct {
	Transport string     `json:"transport" yaml:"transport"` // "stdio" or "http"
	HTTP      HTTPConfig `json:"http" yaml:"http"`
}

// HTTPConfig holds HTTP listener settings.
type HTTPConfig struct {
	Addr        string `json:"addr" yaml:"addr"`               // e.g. ":8080"
	Path        string `json:"path" yaml:"path"`               // e.g. "/mcp"
	MetricsPath string `json:"metricsPath" yaml:"metricsPath"` // empty disables
}

// ScreeningConfig tunes the checks run on every file.
type ScreeningConfig struct {
	MaxFileSizeBytes              *int64   `json:"maxFileSizeBytes,omitempty" yaml:"maxFileSizeBytes,omitempty"`
	SampleBytes                   *int     `json:"sampleBytes,omitempty" yaml:"sampleBytes,omitempty"`
	ExtraBlockedExtensions        []string `json:"extraBlockedExtensions,omitempty" yaml:"extraBlockedExtensions,omitempty"`
	DisableBuiltInContentPatterns *bool    `json:"disableBuiltInContentPatterns,omitempty" yaml:"disableBuiltInContentPatterns,omitempty"`
	CustomContentPatterns         []string `json:"customContentPatterns,omitempty" yaml:"customContentPatterns,omitempty"`
	BlockedHashes                 []string `json:"blockedHashes,omitempty" yaml:"blockedHashes,omitempty"`
}

// ResilienceConfig configures retries and the circuit breaker that guard
// log persistence.
type ResilienceConfig struct {
	MaxAttempts      *int  `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
	DelayMs          *int  `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
	Backoff          *bool `json:"backoff,omitempty" yaml:"backoff,omitempty"`
	BreakerThreshold *int  `json:"breakerThreshold,omitempty" yaml:"breakerThreshold,omitempty"`
	BreakerTimeoutMs *int  `json:"breakerTimeoutMs,omitempty" yaml:"breakerTimeoutMs,omitempty"`
}

// LoggingConfig controls the in-process log buffer.
type LoggingConfig struct {
	BufferSize *int   `json:"bufferSize,omitempty" yaml:"bufferSize,omitempty"`
	Level      string `json:"level" yaml:"level"`
	StorePath  string `json:"storePath,omitempty" yaml:"storePath,omitempty"` // empty keeps logs in memory
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultHTTPAddr    = ":8080"
	DefaultHTTPPath    = "/mcp"
	DefaultMetricsPath = "/metrics"

	DefaultMaxFileSizeBytes = 100 * 1024 * 1024
	DefaultSampleBytes      = 1024

	DefaultMaxAttempts = 3
	DefaultDelayMs     = 1000

	DefaultBufferSize = 100
	DefaultLogLevel   = "info"
)

// Load reads a config file, applies defaults, and validates. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Upstream.Transport == "" {
		cfg.Upstream.Transport = TransportStdio
	}
	if cfg.Upstream.HTTP.Addr == "" {
		cfg.Upstream.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Upstream.HTTP.Path == "" {
		cfg.Upstream.HTTP.Path = DefaultHTTPPath
	}
	if cfg.Upstream.HTTP.MetricsPath == "" {
		cfg.Upstream.HTTP.MetricsPath = DefaultMetricsPath
	}

	s := &cfg.Screening
	if s.MaxFileSizeBytes == nil {
		s.MaxFileSizeBytes = ptr(int64(DefaultMaxFileSizeBytes))
	}
	if s.SampleBytes == nil {
		s.SampleBytes = ptr(DefaultSampleBytes)
	}
	if s.DisableBuiltInContentPatterns == nil {
		s.DisableBuiltInContentPatterns = ptr(false)
	}

	r := &cfg.Resilience
	if r.MaxAttempts == nil {
		r.MaxAttempts = ptr(DefaultMaxAttempts)
	}
	if r.DelayMs == nil {
		r.DelayMs = ptr(DefaultDelayMs)
	}
	if r.Backoff == nil {
		r.Backoff = ptr(true)
	}
	if r.BreakerThreshold == nil {
		r.BreakerThreshold = ptr(resilience.DefaultBreakerThreshold)
	}
	if r.BreakerTimeoutMs == nil {
		r.BreakerTimeoutMs = ptr(int(resilience.DefaultBreakerTimeout / time.Millisecond))
	}

	if cfg.Logging.BufferSize == nil {
		cfg.Logging.BufferSize = ptr(DefaultBufferSize)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}

func validate(cfg Config) error {
	if cfg.Upstream.Transport != TransportStdio && cfg.Upstream.Transport != TransportHTTP {
		return fmt.Errorf("upstream transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, cfg.Upstream.Transport)
	}
	if !strings.HasPrefix(cfg.Upstream.HTTP.Path, "/") {
		return fmt.Errorf("upstream http path %q must start with /", cfg.Upstream.HTTP.Path)
	}
	if cfg.Upstream.HTTP.MetricsPath == cfg.Upstream.HTTP.Path {
		return fmt.Errorf("upstream http metricsPath must differ from path %q", cfg.Upstream.HTTP.Path)
	}

	s := cfg.Screening
	if *s.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("screening.maxFileSizeBytes must be positive, got %d", *s.MaxFileSizeBytes)
	}
	if *s.SampleBytes <= 0 {
		return fmt.Errorf("screening.sampleBytes must be positive, got %d", *s.SampleBytes)
	}
	for i, ext := range s.ExtraBlockedExtensions {
		if strings.TrimPrefix(strings.TrimSpace(ext), ".") == "" {
			return fmt.Errorf("screening.extraBlockedExtensions[%d]: empty extension", i)
		}
	}
	for i, pattern := range s.CustomContentPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("screening.customContentPatterns[%d]: invalid regex %q: %w", i, pattern, err)
		}
	}
	for i, h := range s.BlockedHashes {
		if len(h) != 64 {
			return fmt.Errorf("screening.blockedHashes[%d]: %q is not a SHA-256 hex digest", i, h)
		}
		if _, err := hex.DecodeString(h); err != nil {
			return fmt.Errorf("screening.blockedHashes[%d]: %q is not a SHA-256 hex digest", i, h)
		}
	}

	r := cfg.Resilience
	if *r.MaxAttempts < 1 {
		return fmt.Errorf("resilience.maxAttempts must be at least 1, got %d", *r.MaxAttempts)
	}
	if *r.DelayMs < 0 {
		return fmt.Errorf("resilience.delayMs must not be negative, got %d", *r.DelayMs)
	}
	if *r.BreakerThreshold < 1 {
		return fmt.Errorf("resilience.breakerThreshold must be at least 1, got %d", *r.BreakerThreshold)
	}
	if *r.BreakerTimeoutMs < 1 {
		return fmt.Errorf("resilience.breakerTimeoutMs must be positive, got %d", *r.BreakerTimeoutMs)
	}

	if *cfg.Logging.BufferSize < 1 {
		return fmt.Errorf("logging.bufferSize must be at least 1, got %d", *cfg.Logging.BufferSize)
	}
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown level %q", name)
	}
	return l, nil
}

// RetryOptions converts the resilience section for resilience.Retry.
func (r ResilienceConfig) RetryOptions() resilience.RetryOptions {
	return resilience.RetryOptions{
		MaxAttempts: *r.MaxAttempts,
		Delay:       time.Duration(*r.DelayMs) * time.Millisecond,
		Backoff:     *r.Backoff,
	}
}

// BreakerTimeout returns the breaker cool-down as a duration.
func (r ResilienceConfig) BreakerTimeout() time.Duration {
	return time.Duration(*r.BreakerTimeoutMs) * time.Millisecond
}

func ptr[T any](v T) *T { return &v }
