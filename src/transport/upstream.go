package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/config"
)

const shutdownTimeout = 5 * time.Second

// Upstream wraps the MCP server that faces clients. Tools are registered
// on the underlying Server before calling Run.
type Upstream struct {
	Server *mcp.Server
	cfg    config.UpstreamConfig
	logger *slog.Logger
	extra  map[string]http.Handler
}

// NewUpstream creates an upstream MCP server configured for the given transport.
// Tools should be added to u.Server before calling Run.
func NewUpstream(cfg config.UpstreamConfig, logger *slog.Logger) *Upstream {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deepguard-screener",
			Version: Version,
		},
		&mcp.ServerOptions{Logger: logger},
	)
	return &Upstream{
		Server: srv,
		cfg:    cfg,
		logger: logger.With("area", "upstream"),
		extra:  make(map[string]http.Handler),
	}
}

// Handle mounts h next to the MCP endpoint when running over HTTP. It has
// no effect on the stdio transport.
func (u *Upstream) Handle(path string, h http.Handler) {
	u.extra[path] = h
}

// Run starts the upstream server on the configured transport and blocks
// until ctx is cancelled or the transport closes.
func (u *Upstream) Run(ctx context.Context) error {
	switch u.cfg.Transport {
	case config.TransportStdio:
		return u.runStdio(ctx)
	case config.TransportHTTP:
		return u.runHTTP(ctx)
	default:
		return fmt.Errorf("unsupported upstream transport: %s", u.cfg.Transport)
	}
}

func (u *Upstream) runStdio(ctx context.Context) error {
	u.logger.Info("starting stdio transport")
	return u.Server.Run(ctx, &mcp.StdioTransport{})
}

// Mux returns the HTTP routes served by the HTTP transport.
func (u *Upstream) Mux() *http.ServeMux {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return u.Server },
		&mcp.StreamableHTTPOptions{Logger: u.logger},
	)

	mux := http.NewServeMux()
	mux.Handle(u.cfg.HTTP.Path, handler)
	for path, h := range u.extra {
		mux.Handle(path, h)
	}
	return mux
}

func (u *Upstream) runHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", u.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", u.cfg.HTTP.Addr, err)
	}
	u.logger.Info("starting HTTP transport", "addr", ln.Addr(), "path", u.cfg.HTTP.Path)

	srv := &http.Server{Handler: u.Mux(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		u.logger.Info("shutting down HTTP transport")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
