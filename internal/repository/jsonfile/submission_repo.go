package jsonfile

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// SubmissionRepo реализует repository.SubmissionRepository поверх submissions.json
type SubmissionRepo struct {
	submissions *Collection[entity.Submission]
}

// NewSubmissionRepo создает новый репозиторий отправок
func NewSubmissionRepo(submissions *Collection[entity.Submission]) *SubmissionRepo {
	return &SubmissionRepo{submissions: submissions}
}

// List возвращает все отправки в порядке поступления
func (r *SubmissionRepo) List() ([]entity.Submission, error) {
	return r.submissions.Read()
}

// Append добавляет запись в конец коллекции без какой-либо дедупликации
func (r *SubmissionRepo) Append(submission entity.Submission) error {
	return r.submissions.Update(func(items []entity.Submission) ([]entity.Submission, error) {
		return append(items, submission), nil
	})
}
