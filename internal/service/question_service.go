package service

import (
	"errors"
	"log"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// QuestionsCacheKey - ключ кеша со всем банком вопросов
const QuestionsCacheKey = "questions:all"

// QuestionService отдает банк вопросов, при наличии кеша - через него
type QuestionService struct {
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	cacheTTL     time.Duration
}

// NewQuestionService создает сервис вопросов. cacheRepo может быть nil,
// cacheTTL <= 0 отключает кеш: каждый запрос читает файл.
func NewQuestionService(questionRepo repository.QuestionRepository, cacheRepo repository.CacheRepository, cacheTTL time.Duration) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
	}
}

// List возвращает все вопросы без фильтрации в порядке файла
func (s *QuestionService) List() ([]entity.Question, error) {
	cacheEnabled := s.cacheRepo != nil && s.cacheTTL > 0
	if cacheEnabled {
		var cached []entity.Question
		err := s.cacheRepo.GetJSON(QuestionsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionService] Ошибка чтения кеша вопросов, читаем файл: %v", err)
		}
	}

	questions, err := s.questionRepo.List()
	if err != nil {
		log.Printf("[QuestionService] Ошибка при получении вопросов: %v", err)
		return nil, err
	}

	if cacheEnabled {
		if err := s.cacheRepo.SetJSON(QuestionsCacheKey, questions, s.cacheTTL); err != nil {
			log.Printf("[QuestionService] Не удалось сохранить вопросы в кеш: %v", err)
		}
	}

	return questions, nil
}
