package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/vagov/benefits-portal/internal/application"
	"github.com/vagov/benefits-portal/internal/ports"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// TaskWorker drains background task topics on a fixed interval and
// dispatches each task to the application service.
type TaskWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewTaskWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *TaskWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &TaskWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *TaskWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "worker iteration failed",
				"module", "events.task_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *TaskWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		switch msg.Topic {
		case ports.TopicSubmissionRequested:
			var task ports.SubmissionTask
			if err := json.Unmarshal(msg.Payload, &task); err != nil {
				w.logger.WarnContext(ctx, "malformed submission task", "error", err)
				continue
			}
			if err := w.service.ProcessSubmission(ctx, task); err != nil {
				w.logger.WarnContext(ctx, "failed to process submission task",
					"job_id", task.JobID,
					"error", err,
				)
			}
		case ports.TopicPostLogin:
			var task ports.PostLoginTask
			if err := json.Unmarshal(msg.Payload, &task); err != nil {
				w.logger.WarnContext(ctx, "malformed post-login task", "error", err)
				continue
			}
			if err := w.service.ProcessPostLogin(ctx, task); err != nil {
				w.logger.WarnContext(ctx, "failed to process post-login task",
					"account_uuid", task.AccountUUID,
					"error", err,
				)
			}
		default:
			w.logger.WarnContext(ctx, "unrecognized task topic", "topic", msg.Topic)
		}
	}
	return nil
}
