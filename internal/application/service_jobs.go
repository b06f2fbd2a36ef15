package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

const (
	statsSubmissionJob = "worker.claims.submission"
)

// ProcessSubmission runs one worker-side attempt of a claim submission job.
// Every attempt transitions the ledger: try on entry, then success,
// retryable_error (with a follow-up task at attempt+1), exhausted once the
// attempt budget is spent, or non_retryable_error for faults that retrying
// cannot fix. A run that ends parked for manual review still counts as
// accepted.
func (s *Service) ProcessSubmission(ctx context.Context, task ports.SubmissionTask) error {
	submission, err := s.submissions.GetByID(ctx, task.SubmissionID)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", task.SubmissionID, err)
	}

	now := s.nowFn()
	if _, err := s.jobStatuses.Upsert(ctx, ports.JobStatusUpsertParams{
		JobID:        task.JobID,
		SubmissionID: task.SubmissionID,
		Status:       domain.JobStatusTry,
		At:           now,
	}); err != nil {
		return fmt.Errorf("record try: %w", err)
	}

	user := s.workerIdentity(ctx, submission)

	result, err := s.Submit(ctx, submission.Payload, user)
	if err != nil {
		return s.recordFailure(ctx, task, err)
	}

	if result.ManualReview {
		slog.Default().WarnContext(ctx, "submission accepted for manual review",
			"module", "application",
			"layer", "worker",
			"operation", "process_submission",
			"outcome", "manual",
			"job_id", task.JobID,
			"process_id", result.ProcessID,
		)
	}

	if _, err := s.jobStatuses.Upsert(ctx, ports.JobStatusUpsertParams{
		JobID:        task.JobID,
		SubmissionID: task.SubmissionID,
		Status:       domain.JobStatusSuccess,
		At:           s.nowFn(),
	}); err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	s.telemetry.Increment(statsSubmissionJob, "outcome:success")
	return nil
}

// workerIdentity reconstructs the acting identity for a background run from
// the stored submission, merging correlation IDs from the cached profile
// when one is present.
func (s *Service) workerIdentity(ctx context.Context, submission domain.Submission) domain.UserIdentity {
	user := domain.UserIdentity{
		AccountUUID: submission.AccountUUID,
		FirstName:   submission.Payload.Veteran.FirstName,
		LastName:    submission.Payload.Veteran.LastName,
		SSN:         submission.Payload.Veteran.SSN,
		Email:       submission.Payload.Veteran.EmailAddress,
		LOA:         3,
	}

	if raw, err := s.cache.Get(ctx, profileCacheKey(user)); err == nil && raw != nil {
		var cached domain.ProfileResponse
		if err := json.Unmarshal(raw, &cached); err == nil && cached.OK() {
			user.ICN = cached.Profile.ICN
		}
	}
	return user
}

// recordFailure classifies a failed attempt and writes the matching ledger
// transition. Typed backend faults are retryable until the attempt budget is
// spent; anything else is terminal immediately.
func (s *Service) recordFailure(ctx context.Context, task ports.SubmissionTask, cause error) error {
	var backendErr *domain.BackendServiceError
	retryable := errors.As(cause, &backendErr)

	params := ports.JobStatusUpsertParams{
		JobID:        task.JobID,
		SubmissionID: task.SubmissionID,
		ErrorMessage: cause.Error(),
		At:           s.nowFn(),
	}

	switch {
	case retryable && task.Attempt < s.cfg.SubmissionJobAttempts:
		params.Status = domain.JobStatusRetryableError
		params.ErrorClass = domain.BackendServiceErrorClass
	case retryable:
		params.Status = domain.JobStatusExhausted
		params.ErrorClass = domain.BackendServiceErrorClass
	default:
		params.Status = domain.JobStatusNonRetryableError
		params.ErrorClass = errorClass(cause)
	}

	if _, err := s.jobStatuses.Upsert(ctx, params); err != nil {
		return fmt.Errorf("record %s: %w", params.Status, err)
	}
	s.telemetry.Increment(statsSubmissionJob, "outcome:"+string(params.Status))

	if params.Status == domain.JobStatusRetryableError {
		raw, _ := json.Marshal(ports.SubmissionTask{
			JobID:        task.JobID,
			SubmissionID: task.SubmissionID,
			AccountUUID:  task.AccountUUID,
			Attempt:      task.Attempt + 1,
		})
		if err := s.tasks.Publish(ctx, ports.TopicSubmissionRequested, task.AccountUUID.String(), raw); err != nil {
			return fmt.Errorf("republish submission task: %w", err)
		}
	}

	slog.Default().ErrorContext(ctx, "submission attempt failed",
		"module", "application",
		"layer", "worker",
		"operation", "process_submission",
		"outcome", string(params.Status),
		"job_id", task.JobID,
		"attempt", task.Attempt,
		"error", cause,
	)
	return nil
}

func errorClass(err error) string {
	var backendErr *domain.BackendServiceError
	if errors.As(err, &backendErr) {
		return domain.BackendServiceErrorClass
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return "ValidationError"
	}
	return "Error"
}

// ProcessPostLogin handles the asynchronous follow-up after a successful
// login: it warms the profile cache so the first authenticated page load
// does not pay the identity lookup.
func (s *Service) ProcessPostLogin(ctx context.Context, task ports.PostLoginTask) error {
	user := domain.UserIdentity{AccountUUID: task.AccountUUID, LOA: 3}
	if _, err := s.ResolveProfile(ctx, user); err != nil {
		return fmt.Errorf("warm profile cache: %w", err)
	}
	return nil
}

// JobStatus returns the current ledger entry for one job.
func (s *Service) JobStatus(ctx context.Context, jobID uuid.UUID) (domain.JobStatusRecord, error) {
	record, err := s.jobStatuses.GetByJobID(ctx, jobID)
	if err != nil {
		return domain.JobStatusRecord{}, err
	}
	return record, nil
}

// SubmissionHistory lists every ledger entry recorded for a submission, in
// insertion order.
func (s *Service) SubmissionHistory(ctx context.Context, submissionID uuid.UUID) ([]domain.JobStatusRecord, error) {
	return s.jobStatuses.ListBySubmission(ctx, submissionID)
}
