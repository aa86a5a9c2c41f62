// Package service wires configuration, the sanitizer, the input guard and
// the MCP transport together.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-input-guard/src/input"
	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
	"github.com/Easy-Infra-Ltd/easy-input-guard/src/transport"
)

// Service is the top-level orchestrator.
type Service struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates a Service from the given config and logger.
func New(cfg config.Config, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Build compiles the sanitizer and returns the upstream server with every
// tool registered, ready to Run.
func (s *Service) Build() (*transport.Upstream, error) {
	san, err := sanitizer.FromProvider(s.cfg, sanitizer.Options{MaxPasses: deref(s.cfg.Sanitizer.MaxPasses)})
	if err != nil {
		return nil, fmt.Errorf("sanitizer: %w", err)
	}
	s.logger.Info("sanitizer ready", "tables_version", san.Version())

	maxInput := deref(s.cfg.Sanitizer.MaxInputBytes)
	guard := input.NewGuard(san, input.GuardOptions{
		Exclude:       s.cfg.Input.Exclude,
		MaxValueBytes: maxInput,
	}, s.logger)

	upstream := transport.NewUpstream(s.cfg.Server, s.logger, guard.Middleware)
	if err := NewTools(san, guard, maxInput, s.logger).Register(upstream.Server); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return upstream, nil
}

// Run builds the service and serves until SIGINT/SIGTERM or ctx
// cancellation.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.logger.Info("starting input guard")

	upstream, err := s.Build()
	if err != nil {
		return err
	}

	s.logger.Info("upstream ready", "transport", s.cfg.Server.Transport)
	return upstream.Run(ctx)
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
