package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher is a stand-in task publisher for local runs without a
// broker. Tasks are logged and dropped.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, topic string, partitionKey string, payload []byte) error {
	p.logger.InfoContext(ctx, "task published",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"topic", topic,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}
