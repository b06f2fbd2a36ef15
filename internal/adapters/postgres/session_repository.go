package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

// Create establishes a session and revokes any prior active session for the
// same account inside one transaction, so at most one session per account
// is ever active.
func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	rec := sessionModel{
		Token:        uuid.NewString(),
		AccountUUID:  params.AccountUUID,
		IssuedAt:     params.IssuedAt,
		ExpiresAt:    params.ExpiresAt,
		NameID:       params.NameID,
		SessionIndex: params.SessionIndex,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sessionModel{}).
			Where("account_uuid = ?", params.AccountUUID).
			Where("revoked_at IS NULL").
			Update("revoked_at", params.IssuedAt).Error; err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	var rec sessionModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) RevokeByToken(ctx context.Context, token string, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("token = ?", token).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("token = ?", token).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *sessionRepository) RevokeAllByAccount(ctx context.Context, accountUUID uuid.UUID, revokedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("account_uuid = ?", accountUUID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt).Error
}
