package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
)

// SessionCreateParams captures what is needed to establish a session from a
// validated assertion.
type SessionCreateParams struct {
	AccountUUID  uuid.UUID
	IssuedAt     time.Time
	ExpiresAt    time.Time
	NameID       string
	SessionIndex string
}

// SessionRepository manages persistent session lifecycle. Create supersedes:
// any prior active session for the same account is revoked in the same
// operation, keeping the one-active-session-per-account invariant in the
// store rather than in callers.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	RevokeByToken(ctx context.Context, token string, revokedAt time.Time) error
	RevokeAllByAccount(ctx context.Context, accountUUID uuid.UUID, revokedAt time.Time) error
}

// JobStatusUpsertParams is one ledger transition for a background job.
type JobStatusUpsertParams struct {
	JobID        uuid.UUID
	SubmissionID uuid.UUID
	Status       domain.JobStatus
	ErrorClass   string
	ErrorMessage string
	At           time.Time
}

// JobStatusRepository is the job status ledger. Upsert is keyed by job ID:
// a repeated write for the same job overwrites the prior status, concurrent
// writers for different jobs never conflict, and rows are never deleted.
type JobStatusRepository interface {
	Upsert(ctx context.Context, params JobStatusUpsertParams) (domain.JobStatusRecord, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (domain.JobStatusRecord, error)
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.JobStatusRecord, error)
}

// SubmissionRepository persists accepted claim submissions for background
// processing.
type SubmissionRepository interface {
	Create(ctx context.Context, submission domain.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Submission, error)
}
