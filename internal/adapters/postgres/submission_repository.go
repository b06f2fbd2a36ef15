package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"gorm.io/gorm"
)

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission domain.Submission) error {
	raw, err := json.Marshal(submission.Payload)
	if err != nil {
		return err
	}
	rec := submissionModel{
		SubmissionID: submission.ID,
		AccountUUID:  submission.AccountUUID,
		FormType:     submission.FormType,
		Payload:      string(raw),
		EnqueuedAt:   submission.EnqueuedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Submission, error) {
	var rec submissionModel
	if err := r.db.WithContext(ctx).Where("submission_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Submission{}, domain.ErrNotFound
		}
		return domain.Submission{}, err
	}
	return toDomainSubmission(rec)
}
