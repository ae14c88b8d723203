package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// SubmissionRepository определяет методы для работы с отправленными тестами
type SubmissionRepository interface {
	List() ([]entity.Submission, error)
	Append(submission entity.Submission) error
}
