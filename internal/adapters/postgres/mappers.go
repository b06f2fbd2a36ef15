package postgres

import (
	"encoding/json"
	"strings"

	"github.com/vagov/benefits-portal/internal/domain"
)

func toDomainSession(row sessionModel) domain.Session {
	return domain.Session{
		Token:        row.Token,
		AccountUUID:  row.AccountUUID,
		IssuedAt:     row.IssuedAt,
		ExpiresAt:    row.ExpiresAt,
		RevokedAt:    row.RevokedAt,
		NameID:       row.NameID,
		SessionIndex: row.SessionIndex,
	}
}

func toDomainJobStatus(row jobStatusModel) domain.JobStatusRecord {
	record := domain.JobStatusRecord{
		JobID:        row.JobID,
		SubmissionID: row.SubmissionID,
		Status:       domain.JobStatus(row.Status),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.ErrorClass != nil {
		record.ErrorClass = *row.ErrorClass
	}
	if row.ErrorMessage != nil {
		record.ErrorMessage = *row.ErrorMessage
	}
	return record
}

func toDomainSubmission(row submissionModel) (domain.Submission, error) {
	var payload domain.ClaimPayload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		return domain.Submission{}, err
	}
	return domain.Submission{
		ID:          row.SubmissionID,
		AccountUUID: row.AccountUUID,
		FormType:    row.FormType,
		Payload:     payload,
		EnqueuedAt:  row.EnqueuedAt,
	}, nil
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
