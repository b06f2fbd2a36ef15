package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobStatusRepository struct {
	db *gorm.DB
}

// Upsert writes one ledger transition keyed by job ID. A repeated write for
// the same job overwrites the prior status; created_at is preserved from
// the first write.
func (r *jobStatusRepository) Upsert(ctx context.Context, params ports.JobStatusUpsertParams) (domain.JobStatusRecord, error) {
	rec := jobStatusModel{
		JobID:        params.JobID,
		SubmissionID: params.SubmissionID,
		Status:       string(params.Status),
		ErrorClass:   nullableString(params.ErrorClass),
		ErrorMessage: nullableString(params.ErrorMessage),
		CreatedAt:    params.At,
		UpdatedAt:    params.At,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":        rec.Status,
			"error_class":   rec.ErrorClass,
			"error_message": rec.ErrorMessage,
			"updated_at":    rec.UpdatedAt,
		}),
	}).Create(&rec).Error
	if err != nil {
		return domain.JobStatusRecord{}, err
	}
	return r.GetByJobID(ctx, params.JobID)
}

func (r *jobStatusRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (domain.JobStatusRecord, error) {
	var rec jobStatusModel
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.JobStatusRecord{}, domain.ErrNotFound
		}
		return domain.JobStatusRecord{}, err
	}
	return toDomainJobStatus(rec), nil
}

func (r *jobStatusRepository) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.JobStatusRecord, error) {
	var rows []jobStatusModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.JobStatusRecord, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainJobStatus(item))
	}
	return result, nil
}
