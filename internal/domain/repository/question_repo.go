package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// QuestionRepository предоставляет банк вопросов только для чтения
type QuestionRepository interface {
	List() ([]entity.Question, error)
}
