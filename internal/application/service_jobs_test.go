package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

func TestAcceptSubmissionPersistsAndSchedules(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	accountUUID := uuid.New()
	jobID, err := f.service.AcceptSubmission(ctx, accountUUID, dependencyClaimPayload())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	record, err := f.service.JobStatus(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusTry, record.Status)

	tasks := f.publisher.byTopic(ports.TopicSubmissionRequested)
	require.Len(t, tasks, 1)
	require.Equal(t, accountUUID.String(), tasks[0].partitionKey)

	var task ports.SubmissionTask
	require.NoError(t, json.Unmarshal(tasks[0].payload, &task))
	require.Equal(t, jobID, task.JobID)
	require.Equal(t, record.SubmissionID, task.SubmissionID)
	require.Equal(t, 1, task.Attempt)

	submission, err := f.submissions.GetByID(ctx, task.SubmissionID)
	require.NoError(t, err)
	require.Equal(t, accountUUID, submission.AccountUUID)
	require.Equal(t, domain.FormTypeDependencyChange, submission.FormType)
}

func TestAcceptSubmissionRejectsMissingVeteranName(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	payload.Veteran.FirstName = ""
	_, err := f.service.AcceptSubmission(context.Background(), uuid.New(), payload)
	require.ErrorIs(t, err, domain.ErrUnprocessableEntity)
	require.Empty(t, f.publisher.published)
}

func TestAcceptSubmissionDefaultsFormType(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	payload.FormType = ""
	jobID, err := f.service.AcceptSubmission(context.Background(), uuid.New(), payload)
	require.NoError(t, err)

	record, err := f.service.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	submission, err := f.submissions.GetByID(context.Background(), record.SubmissionID)
	require.NoError(t, err)
	require.Equal(t, domain.FormTypeDependencyChange, submission.FormType)
}

func acceptedTask(t *testing.T, f *fixture) ports.SubmissionTask {
	t.Helper()
	jobID, err := f.service.AcceptSubmission(context.Background(), uuid.New(), dependencyClaimPayload())
	require.NoError(t, err)

	tasks := f.publisher.byTopic(ports.TopicSubmissionRequested)
	require.Len(t, tasks, 1)
	var task ports.SubmissionTask
	require.NoError(t, json.Unmarshal(tasks[0].payload, &task))
	require.Equal(t, jobID, task.JobID)
	return task
}

func TestProcessSubmissionRecordsSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.True(t, record.Success())
	require.Empty(t, record.ErrorClass)
	require.Equal(t, []domain.JobStatus{
		domain.JobStatusTry,
		domain.JobStatusTry,
		domain.JobStatusSuccess,
	}, f.jobStatuses.history)
}

func TestProcessSubmissionUsesCachedCorrelationIDs(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)

	cached, err := json.Marshal(domain.ProfileResponse{
		Status:  domain.ProfileStatusOK,
		Profile: domain.IdentityProfile{ICN: "1008709396V637156"},
	})
	require.NoError(t, err)
	key := profileCacheKey(domain.UserIdentity{AccountUUID: task.AccountUUID})
	require.NoError(t, f.cache.Set(ctx, key, cached, 0))

	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.True(t, record.Success())
}

func TestProcessSubmissionRetryableFailureRepublishes(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	f.benefits.failTimes("create_process", 3)

	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusRetryableError, record.Status)
	require.Equal(t, domain.BackendServiceErrorClass, record.ErrorClass)

	tasks := f.publisher.byTopic(ports.TopicSubmissionRequested)
	require.Len(t, tasks, 2, "the failed attempt must schedule a follow-up")
	var next ports.SubmissionTask
	require.NoError(t, json.Unmarshal(tasks[1].payload, &next))
	require.Equal(t, task.JobID, next.JobID)
	require.Equal(t, task.Attempt+1, next.Attempt)
}

func TestProcessSubmissionExhaustsAfterFinalAttempt(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	task.Attempt = 5
	f.benefits.failTimes("create_process", 3)

	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusExhausted, record.Status)

	tasks := f.publisher.byTopic(ports.TopicSubmissionRequested)
	require.Len(t, tasks, 1, "an exhausted job must not be rescheduled")
}

func TestProcessSubmissionManualReviewCountsAsAccepted(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	f.benefits.failTimes("update_process:Ready", 1)

	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.True(t, record.Success(), "a parked run still resolves the job")
}

func TestProcessSubmissionUnknownSubmission(t *testing.T) {
	t.Parallel()
	f := newFixture()

	err := f.service.ProcessSubmission(context.Background(), ports.SubmissionTask{
		JobID:        uuid.New(),
		SubmissionID: uuid.New(),
		AccountUUID:  uuid.New(),
		Attempt:      1,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordFailureClassifiesNonRetryableErrors(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	require.NoError(t, f.service.recordFailure(ctx, task, errors.New("payload mapping broke")))

	record, err := f.service.JobStatus(ctx, task.JobID)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusNonRetryableError, record.Status)
	require.Equal(t, "Error", record.ErrorClass)
	require.Equal(t, "payload mapping broke", record.ErrorMessage)

	tasks := f.publisher.byTopic(ports.TopicSubmissionRequested)
	require.Len(t, tasks, 1, "non-retryable failures must not be rescheduled")
}

func TestProcessPostLoginWarmsProfileCache(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.identity.findResponse = domain.ProfileResponse{
		Status:  domain.ProfileStatusOK,
		Profile: domain.IdentityProfile{ICN: "1008709396V637156"},
	}

	accountUUID := uuid.New()
	require.NoError(t, f.service.ProcessPostLogin(ctx, ports.PostLoginTask{AccountUUID: accountUUID}))
	require.Equal(t, 1, f.identity.findCalls)

	// The interactive resolve that follows is a cache hit.
	response, err := f.service.ResolveProfile(ctx, domain.UserIdentity{AccountUUID: accountUUID, LOA: 3})
	require.NoError(t, err)
	require.True(t, response.OK())
	require.Equal(t, 1, f.identity.findCalls)
}

func TestSubmissionHistoryListsLedgerEntries(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	task := acceptedTask(t, f)
	require.NoError(t, f.service.ProcessSubmission(ctx, task))

	history, err := f.service.SubmissionHistory(ctx, task.SubmissionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, task.JobID, history[0].JobID)
}
