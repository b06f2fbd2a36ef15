package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task topics published by the API process and consumed by the worker.
const (
	TopicPostLogin           = "auth.login.succeeded"
	TopicSubmissionRequested = "claims.submission.requested"
)

// PostLoginTask is the asynchronous follow-up scheduled after a successful
// login callback. The request returns before this work completes.
type PostLoginTask struct {
	AccountUUID uuid.UUID `json:"account_uuid"`
	LoggedInAt  time.Time `json:"logged_in_at"`
}

// SubmissionTask drives one background run of the claim submission
// pipeline. Attempt counts worker-level retries for ledger classification.
type SubmissionTask struct {
	JobID        uuid.UUID `json:"job_id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	AccountUUID  uuid.UUID `json:"account_uuid"`
	Attempt      int       `json:"attempt"`
}

// TaskPublisher dispatches background tasks to the worker. Implementations
// partition by account so per-user ordering is preserved.
type TaskPublisher interface {
	Publish(ctx context.Context, topic string, partitionKey string, payload []byte) error
}
