package sink

import (
	"context"
	"log/slog"
)

// Router fans out results to all configured sinks. One sink error does
// not block the others — errors are logged and the first encountered is
// returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendColors(ctx context.Context, report ColorReport) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendColors(ctx, report); err != nil {
			r.logger.Warn("sink: send colors failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) SendFindings(ctx context.Context, report FindingsReport) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendFindings(ctx, report); err != nil {
			r.logger.Warn("sink: send findings failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) SendSummary(ctx context.Context, summary Summary) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendSummary(ctx, summary); err != nil {
			r.logger.Warn("sink: send summary failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
