package postgres

import (
	"github.com/vagov/benefits-portal/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Sessions    ports.SessionRepository
	JobStatuses ports.JobStatusRepository
	Submissions ports.SubmissionRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Sessions:    &sessionRepository{db: db},
		JobStatuses: &jobStatusRepository{db: db},
		Submissions: &submissionRepository{db: db},
	}
}
