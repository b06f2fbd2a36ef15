package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// LoggingSink emits metrics and error notifications through the structured
// logger. It stands in for a statsd or OTLP exporter in local runs and
// tests while keeping the same call sites.
type LoggingSink struct {
	logger *slog.Logger
}

func NewLoggingSink(logger *slog.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

func (s *LoggingSink) Increment(name string, tags ...string) {
	s.logger.Debug("metric increment",
		"module", "telemetry",
		"layer", "adapter",
		"metric", name,
		"tags", tags,
	)
}

func (s *LoggingSink) Measure(name string, d time.Duration, tags ...string) {
	s.logger.Debug("metric measure",
		"module", "telemetry",
		"layer", "adapter",
		"metric", name,
		"duration_ms", d.Milliseconds(),
		"tags", tags,
	)
}

func (s *LoggingSink) Notify(ctx context.Context, err error, fields map[string]string) {
	attrs := []any{
		"module", "telemetry",
		"layer", "adapter",
		"operation", "notify",
		"error", err,
	}
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	s.logger.ErrorContext(ctx, "unexpected error reported", attrs...)
}
