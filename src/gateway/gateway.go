package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/config"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/logbuffer"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/metrics"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/transport"
)

// Gateway is the top-level orchestrator. It wires config, the screener,
// the tool registry, metrics and the log buffer to the upstream transport.
type Gateway struct {
	cfg     config.Config
	logger  *slog.Logger
	logs    *logbuffer.Buffer
	metrics *metrics.Metrics
}

// New creates a Gateway. logs may be nil to run without a log buffer; a
// nil m creates a fresh metrics registry.
func New(cfg config.Config, logger *slog.Logger, logs *logbuffer.Buffer, m *metrics.Metrics) *Gateway {
	if m == nil {
		m = metrics.New()
	}
	return &Gateway{cfg: cfg, logger: logger, logs: logs, metrics: m}
}

// Setup builds the screener and registers its tools on a new upstream.
func (g *Gateway) Setup() (*transport.Upstream, error) {
	scr, err := BuildScreener(g.cfg.Screening, g.logger)
	if err != nil {
		return nil, fmt.Errorf("screener: %w", err)
	}

	upstream := transport.NewUpstream(g.cfg.Upstream, g.logger)
	reg := NewRegistry(upstream.Server, scr, g.logs, g.metrics, g.logger)
	reg.Register()

	if path := g.cfg.Upstream.HTTP.MetricsPath; path != "" {
		upstream.Handle(path, g.metrics.Handler())
	}
	return upstream, nil
}

// Run starts the gateway and blocks until SIGINT/SIGTERM or ctx
// cancellation. The log buffer, if any, is persisted in the background
// and flushed once more on the way out.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g.logger.Info("starting gateway", "version", transport.Version)

	upstream, err := g.Setup()
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	// A stdio upstream returns nil on EOF, which errgroup does not treat
	// as a reason to cancel; the log buffer needs ctx done to exit.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if g.logs != nil {
		eg.Go(func() error {
			g.logs.Run(ctx)
			return nil
		})
	}
	eg.Go(func() error {
		defer cancel()
		g.logger.Info("upstream ready", "transport", g.cfg.Upstream.Transport)
		return upstream.Run(ctx)
	})
	return eg.Wait()
}
