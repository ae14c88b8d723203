package jsonfile

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// QuestionRepo реализует repository.QuestionRepository поверх questions.json
type QuestionRepo struct {
	questions *Collection[entity.Question]
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(questions *Collection[entity.Question]) *QuestionRepo {
	return &QuestionRepo{questions: questions}
}

// List возвращает весь банк вопросов в порядке файла
func (r *QuestionRepo) List() ([]entity.Question, error) {
	return r.questions.Read()
}
