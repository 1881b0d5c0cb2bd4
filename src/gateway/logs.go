package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/config"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/logbuffer"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/metrics"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/resilience"
)

// OpenLogs creates the log buffer described by cfg. Entries persist in a
// BadgerDB under cfg.Logging.StorePath, or in memory when it is empty.
// logger reports persistence problems and must not write into the
// returned buffer. The returned closer releases the store.
func OpenLogs(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*logbuffer.Buffer, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	store, err := logbuffer.OpenBadgerStore(cfg.Logging.StorePath, logger.With("area", "badger"))
	if err != nil {
		return nil, nil, err
	}

	retry := cfg.Resilience.RetryOptions()
	var breakerOpts []resilience.BreakerOption
	if m != nil {
		retry.OnRetry = m.OnRetry("log_flush")
		breakerOpts = append(breakerOpts, resilience.WithStateListener(m.BreakerListener("log_store")))
	}

	buf := logbuffer.New(ctx, store, logbuffer.Options{
		MaxEntries: *cfg.Logging.BufferSize,
		Level:      level,
		Retry:      retry,
		Breaker: resilience.NewCircuitBreaker(
			*cfg.Resilience.BreakerThreshold,
			cfg.Resilience.BreakerTimeout(),
			breakerOpts...,
		),
		Logger: logger,
	})
	return buf, store, nil
}
