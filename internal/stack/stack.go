// Package stack assembles a registry and its observers from configuration.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"vislevel/internal/config"
	"vislevel/internal/level"
	"vislevel/internal/metrics"
	"vislevel/internal/trace"
)

// Stack is a registry wired to its event recorder, metrics and optional
// inspection server.
type Stack struct {
	Registry *level.Registry
	Recorder *trace.Recorder
	Metrics  *metrics.Metrics // nil unless metrics are enabled
	Server   *trace.Server    // nil unless an inspect address is set

	logger *slog.Logger
}

// New builds a stack from cfg. The OTLP exporter is only created when an
// endpoint is configured. extra hooks run after the recorder and metrics.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...level.Hook) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := trace.NewOTLPExporter(ctx, cfg.Trace.OTLPEndpoint, cfg.Trace.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	recOpts := []trace.RecorderOption{trace.WithRecorderLogger(logger)}
	if exporter != nil {
		recOpts = append(recOpts, trace.WithExporter(exporter))
	}

	s := &Stack{
		Recorder: trace.NewRecorder(cfg.Trace.Capacity, recOpts...),
		logger:   logger,
	}

	hooks := []level.Hook{s.Recorder}
	if cfg.Metrics.Enabled {
		s.Metrics = metrics.New(prometheus.NewRegistry())
		hooks = append(hooks, s.Metrics)
	}
	hooks = append(hooks, extra...)

	s.Registry = level.NewRegistry(
		level.WithLogger(logger),
		level.WithHooks(hooks...),
		level.WithStrictClear(cfg.StrictClear),
	)

	if cfg.Inspect.Addr != "" {
		s.Server = trace.NewServer(s.Registry, s.Recorder, logger, cfg.Inspect.Addr)
		if s.Metrics != nil {
			s.Server.Mount("/metrics", s.Metrics.Handler())
		}
	}
	return s, nil
}

// Start starts the inspection server, if any.
func (s *Stack) Start() error {
	if s.Server == nil {
		return nil
	}
	if err := s.Server.Start(); err != nil {
		return fmt.Errorf("inspection server: %w", err)
	}
	return nil
}

// Close stops the server and flushes pending span exports.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	if s.Server != nil {
		if err := s.Server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop inspection server: %w", err))
		}
	}
	if err := s.Recorder.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush spans: %w", err))
	}
	if len(errs) > 0 {
		s.logger.Warn("stack shutdown incomplete", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
