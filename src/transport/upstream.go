// Package transport exposes an MCP server to clients over stdio or
// streamable HTTP.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/config"
)

// Middleware wraps the HTTP handler serving the MCP endpoint.
type Middleware func(http.Handler) http.Handler

// Upstream wraps the MCP server that faces clients. Tools are registered
// on the underlying Server before calling Run.
type Upstream struct {
	Server     *mcp.Server
	cfg        config.ServerConfig
	middleware []Middleware
	logger     *slog.Logger
}

// NewUpstream creates an MCP server configured for the given transport.
// The middleware only applies to the HTTP transport; the first entry is
// the outermost.
func NewUpstream(cfg config.ServerConfig, logger *slog.Logger, middleware ...Middleware) *Upstream {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "easy-input-guard",
			Version: Version,
		},
		&mcp.ServerOptions{Logger: logger},
	)
	return &Upstream{
		Server:     srv,
		cfg:        cfg,
		middleware: middleware,
		logger:     logger.With("area", "upstream"),
	}
}

// Run starts the server on the configured transport and blocks until ctx
// is cancelled or the transport closes.
func (u *Upstream) Run(ctx context.Context) error {
	switch u.cfg.Transport {
	case config.TransportStdio:
		return u.runStdio(ctx)
	case config.TransportHTTP:
		return u.runHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", u.cfg.Transport)
	}
}

// Handler returns the HTTP handler for the MCP endpoint, mounted at the
// configured path and wrapped in the configured middleware.
func (u *Upstream) Handler() http.Handler {
	var handler http.Handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return u.Server },
		&mcp.StreamableHTTPOptions{Logger: u.logger},
	)
	for i := len(u.middleware) - 1; i >= 0; i-- {
		handler = u.middleware[i](handler)
	}

	mux := http.NewServeMux()
	mux.Handle(u.cfg.HTTP.Path, handler)
	return mux
}

func (u *Upstream) runStdio(ctx context.Context) error {
	u.logger.Info("starting stdio transport")
	return u.Server.Run(ctx, &mcp.StdioTransport{})
}

func (u *Upstream) runHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", u.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", u.cfg.HTTP.Addr, err)
	}
	u.logger.Info("starting HTTP transport", "addr", ln.Addr(), "path", u.cfg.HTTP.Path)

	srv := &http.Server{
		Handler:           u.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		u.logger.Info("shutting down HTTP transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
