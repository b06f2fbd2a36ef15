package postgres

import (
	"time"

	"github.com/google/uuid"
)

type sessionModel struct {
	Token        string     `gorm:"column:token;primaryKey"`
	AccountUUID  uuid.UUID  `gorm:"column:account_uuid;type:uuid"`
	IssuedAt     time.Time  `gorm:"column:issued_at"`
	ExpiresAt    time.Time  `gorm:"column:expires_at"`
	RevokedAt    *time.Time `gorm:"column:revoked_at"`
	NameID       string     `gorm:"column:saml_name_id"`
	SessionIndex string     `gorm:"column:saml_session_index"`
}

func (sessionModel) TableName() string { return "sessions" }

type jobStatusModel struct {
	JobID        uuid.UUID `gorm:"column:job_id;type:uuid;primaryKey"`
	SubmissionID uuid.UUID `gorm:"column:submission_id;type:uuid"`
	Status       string    `gorm:"column:status"`
	ErrorClass   *string   `gorm:"column:error_class"`
	ErrorMessage *string   `gorm:"column:error_message"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (jobStatusModel) TableName() string { return "job_statuses" }

type submissionModel struct {
	SubmissionID uuid.UUID `gorm:"column:submission_id;type:uuid;primaryKey"`
	AccountUUID  uuid.UUID `gorm:"column:account_uuid;type:uuid"`
	FormType     string    `gorm:"column:form_type"`
	Payload      string    `gorm:"column:payload;type:jsonb"`
	EnqueuedAt   time.Time `gorm:"column:enqueued_at"`
}

func (submissionModel) TableName() string { return "submissions" }
