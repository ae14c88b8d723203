package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
)

const receiptTimeout = 30 * time.Second

// SubmissionService записывает и отдает отправленные тесты
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	emailService   EmailService
	broadcaster    EventBroadcaster
	now            func() time.Time
	// async запускает фоновые задачи; в тестах подменяется синхронным вызовом
	async func(func())
}

// NewSubmissionService создает сервис отправок.
// emailService и broadcaster могут быть nil.
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	emailService EmailService,
	broadcaster EventBroadcaster,
) *SubmissionService {
	if emailService == nil {
		emailService = &NoopEmailService{}
	}
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &SubmissionService{
		submissionRepo: submissionRepo,
		emailService:   emailService,
		broadcaster:    broadcaster,
		now:            time.Now,
		async:          func(fn func()) { go fn() },
	}
}

// Record добавляет запись об отправке. Ни email, ни идентификаторы вопросов
// не проверяются, дубликаты не отбрасываются.
func (s *SubmissionService) Record(user string, answers entity.Answers) (*entity.Submission, error) {
	if strings.TrimSpace(user) == "" || answers == nil {
		return nil, ErrAnswersRequired
	}

	submission := entity.Submission{
		ID:          uuid.NewString(),
		User:        user,
		Answers:     answers,
		SubmittedAt: s.now().UTC(),
	}

	if err := s.submissionRepo.Append(submission); err != nil {
		log.Printf("[SubmissionService] Ошибка при сохранении отправки пользователя %s: %v", user, err)
		return nil, err
	}

	log.Printf("[SubmissionService] Сохранена отправка %s пользователя %s (ответов: %d, пропущено: %d)",
		submission.ID, user, answers.AnsweredCount(), answers.SkippedCount())

	s.broadcaster.Broadcast(EventSubmissionCreated, submission)

	if entity.IsValidEmail(user) {
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
			defer cancel()
			if err := s.emailService.SendSubmissionReceipt(ctx, submission); err != nil {
				log.Printf("[SubmissionService] Не удалось отправить квитанцию %s: %v", submission.ID, err)
			}
		})
	}

	return &submission, nil
}

// List возвращает все отправки в порядке добавления
func (s *SubmissionService) List() ([]entity.Submission, error) {
	submissions, err := s.submissionRepo.List()
	if err != nil {
		log.Printf("[SubmissionService] Ошибка при получении списка отправок: %v", err)
		return nil, err
	}
	return submissions, nil
}
