// Package session реализует клиентскую сессию прохождения теста с таймером:
// Loading -> Active -> Submitting -> Submitted.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/localstore"
)

// API - вызовы сервера, которые нужны сессии
type API interface {
	GetQuestions(ctx context.Context, email string) ([]entity.Question, error)
	Submit(ctx context.Context, user string, answers entity.Answers) error
}

// Config содержит настройки сессии
type Config struct {
	// Duration - время на весь тест
	Duration time.Duration
	// TickInterval - шаг таймера
	TickInterval time.Duration
	// SubmitRetries - число попыток автоматической отправки по таймауту
	SubmitRetries uint
	// RetryInitialInterval - пауза перед второй попыткой, далее растет экспоненциально
	RetryInitialInterval time.Duration
}

// DefaultConfig возвращает настройки по умолчанию: 30 минут, шаг 1 секунда
func DefaultConfig() Config {
	return Config{
		Duration:             30 * time.Minute,
		TickInterval:         time.Second,
		SubmitRetries:        3,
		RetryInitialInterval: 500 * time.Millisecond,
	}
}

const eventBufferSize = 64

// Session - состояние одного прохождения теста. Все переходы сериализованы
// мьютексом; сетевые вызовы выполняются без удержания блокировки, а состояния
// Loading и Submitting на это время блокируют остальные переходы.
type Session struct {
	cfg     Config
	api     API
	storage localstore.Storage
	email   string

	mu           sync.Mutex
	state        State
	loading      bool
	questions    []entity.Question
	currentIndex int
	answers      entity.Answers
	timeLeft     time.Duration
	result       entity.Answers
	pending      *PendingSubmission
	resumed      bool
	autoFired    bool
	// resending - идет повторная отправка отложенного набора ответов
	resending bool

	events chan Event
}

// New создает сессию в состоянии Loading для пользователя с email identity
func New(cfg Config, api API, storage localstore.Storage, identity string) *Session {
	defaults := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = defaults.Duration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.SubmitRetries == 0 {
		cfg.SubmitRetries = 1
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaults.RetryInitialInterval
	}
	return &Session{
		cfg:     cfg,
		api:     api,
		storage: storage,
		email:   identity,
		state:   Loading,
		answers: entity.Answers{},
		events:  make(chan Event, eventBufferSize),
	}
}

// Events возвращает канал уведомлений. Если читатель не успевает, уведомления теряются.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Snapshot возвращает копию текущего состояния
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	questions := make([]entity.Question, len(s.questions))
	copy(questions, s.questions)
	return Snapshot{
		State:        s.state,
		Questions:    questions,
		CurrentIndex: s.currentIndex,
		Answers:      s.answers.Clone(),
		TimeLeft:     s.timeLeft,
		Result:       s.result.Clone(),
		Pending:      s.pending != nil,
		Resumed:      s.resumed,
	}
}

func (s *Session) emitLocked(t EventType) {
	select {
	case s.events <- Event{Type: t, Snapshot: s.snapshotLocked()}:
	default:
	}
}

// Load загружает вопросы и восстанавливает сохраненные ответы.
// Если остался неотправленный набор ответов, сначала отправляет его, и тогда
// сессия сразу переходит в Submitted. Ошибка загрузки оставляет сессию в Loading.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Loading {
		s.mu.Unlock()
		return ErrNotLoading
	}
	if s.loading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	if s.email == "" {
		s.mu.Unlock()
		return ErrNoIdentity
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var pending PendingSubmission
	found, err := s.storage.Get(localstore.KeyPendingSubmission, &pending)
	if err != nil {
		log.Printf("[Session] Не удалось прочитать отложенную отправку: %v", err)
	}
	if found {
		return s.resumePending(ctx, pending)
	}

	restored := entity.Answers{}
	if _, err := s.storage.Get(localstore.KeyTestAnswers, &restored); err != nil {
		log.Printf("[Session] Не удалось восстановить ответы, начинаем заново: %v", err)
		restored = entity.Answers{}
	}
	if restored == nil {
		restored = entity.Answers{}
	}

	questions, err := s.api.GetQuestions(ctx, s.email)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = questions
	s.answers = restored
	s.currentIndex = 0
	s.timeLeft = s.cfg.Duration
	s.autoFired = false
	s.state = Active
	s.emitLocked(EventLoaded)
	return nil
}

func (s *Session) resumePending(ctx context.Context, pending PendingSubmission) error {
	if pending.User == "" {
		pending.User = s.email
	}

	s.mu.Lock()
	if s.resending {
		s.mu.Unlock()
		return nil
	}
	s.resending = true
	s.mu.Unlock()

	log.Printf("[Session] Найдена неотправленная попытка от %s, отправляем повторно", pending.FailedAt.Format(time.RFC3339))
	err := s.submitWithRetry(ctx, pending.User, pending.Answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resending = false
	if err != nil {
		s.pending = &pending
		s.emitLocked(EventPending)
		return fmt.Errorf("%w: %w", ErrSubmissionPending, err)
	}
	s.resumed = true
	s.finishLocked(pending.Answers)
	return nil
}

// Select записывает вариант ответа на текущий вопрос, не меняя позицию
func (s *Session) Select(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return ErrNotActive
	}
	q := s.questions[s.currentIndex]
	if !q.HasOption(option) {
		return ErrInvalidOption
	}
	s.answers[q.ID.Key()] = entity.Option(option)
	s.persistLocked()
	s.emitLocked(EventAnswerChanged)
	return nil
}

// Next переходит к следующему вопросу; текущий должен иметь ответ
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return ErrNotActive
	}
	q := s.questions[s.currentIndex]
	if s.answers[q.ID.Key()] == nil {
		return ErrNotAnswered
	}
	if s.currentIndex == len(s.questions)-1 {
		return ErrLastQuestion
	}
	s.currentIndex++
	s.emitLocked(EventMoved)
	return nil
}

// Skip отмечает текущий вопрос пропущенным, если ответа еще нет, и переходит дальше.
// На последнем вопросе позиция не меняется.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return ErrNotActive
	}
	key := s.questions[s.currentIndex].ID.Key()
	if _, ok := s.answers[key]; !ok {
		s.answers[key] = nil
		s.persistLocked()
	}
	if s.currentIndex < len(s.questions)-1 {
		s.currentIndex++
	}
	s.emitLocked(EventMoved)
	return nil
}

// Submit - явная отправка с последнего вопроса (подтверждение - забота вызывающего).
// Повторный вызов во время или после отправки ничего не делает.
// При ошибке сессия возвращается в Active.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Submitting, Submitted:
		s.mu.Unlock()
		return nil
	case Active:
	default:
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.currentIndex != len(s.questions)-1 {
		s.mu.Unlock()
		return ErrNotOnFinalQuestion
	}
	final := s.beginSubmitLocked()
	s.mu.Unlock()

	err := s.api.Submit(ctx, s.email, final)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("[Session] Отправка не удалась, возвращаемся к тесту: %v", err)
		s.state = Active
		s.emitLocked(EventSubmitFailed)
		return fmt.Errorf("submit: %w", err)
	}
	s.finishLocked(final)
	return nil
}

// Tick уменьшает оставшееся время. Когда время выходит, один раз запускает
// автоматическую отправку без подтверждения.
func (s *Session) Tick(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return nil
	}
	s.timeLeft -= s.cfg.TickInterval
	if s.timeLeft > 0 {
		s.emitLocked(EventTick)
		s.mu.Unlock()
		return nil
	}
	s.timeLeft = 0
	if s.autoFired {
		s.mu.Unlock()
		return nil
	}
	s.autoFired = true
	final := s.beginSubmitLocked()
	s.mu.Unlock()

	return s.autoSubmit(ctx, final)
}

// Resume повторяет отправку отложенного набора ответов в текущей сессии.
// Вызов во время уже идущей повторной отправки ничего не делает.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Submitted || s.resending {
		s.mu.Unlock()
		return nil
	}
	if s.pending == nil {
		s.mu.Unlock()
		return ErrNotActive
	}
	pending := *s.pending
	s.resending = true
	s.mu.Unlock()

	err := s.submitWithRetry(ctx, pending.User, pending.Answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resending = false
	if err != nil {
		s.emitLocked(EventPending)
		return fmt.Errorf("%w: %w", ErrSubmissionPending, err)
	}
	s.finishLocked(pending.Answers)
	return nil
}

// Run запускает таймер и возвращается, когда сессия отправлена, отправка
// отложена (ErrSubmissionPending) или отменен ctx.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return err
			}
			if s.Snapshot().State == Submitted {
				return nil
			}
		}
	}
}

func (s *Session) autoSubmit(ctx context.Context, final entity.Answers) error {
	err := s.submitWithRetry(ctx, s.email, final)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.finishLocked(final)
		return nil
	}

	pending := PendingSubmission{User: s.email, Answers: final, FailedAt: time.Now().UTC()}
	if storeErr := s.storage.Set(localstore.KeyPendingSubmission, pending); storeErr != nil {
		log.Printf("[Session] Не удалось сохранить отложенную отправку: %v", storeErr)
	}
	s.pending = &pending
	s.emitLocked(EventPending)
	log.Printf("[Session] Автоматическая отправка не удалась, ответы сохранены для повтора: %v", err)
	return fmt.Errorf("%w: %w", ErrSubmissionPending, err)
}

func (s *Session) submitWithRetry(ctx context.Context, user string, answers entity.Answers) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitialInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := s.api.Submit(ctx, user, answers); err != nil {
			log.Printf("[Session] Попытка отправки %d не удалась: %v", attempt, err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.cfg.SubmitRetries))
	return err
}

// beginSubmitLocked переводит сессию в Submitting и формирует полный набор ответов:
// по одной записи на каждый вопрос банка.
func (s *Session) beginSubmitLocked() entity.Answers {
	s.state = Submitting
	s.emitLocked(EventSubmitting)
	return s.answers.Complete(s.questions)
}

func (s *Session) finishLocked(final entity.Answers) {
	s.state = Submitted
	s.result = final
	s.pending = nil
	if err := s.storage.Remove(localstore.KeyTestAnswers, localstore.KeyPendingSubmission); err != nil {
		log.Printf("[Session] Не удалось очистить сохраненные ответы: %v", err)
	}
	s.emitLocked(EventSubmitted)
}

func (s *Session) persistLocked() {
	if err := s.storage.Set(localstore.KeyTestAnswers, s.answers); err != nil {
		log.Printf("[Session] Не удалось сохранить ответы: %v", err)
	}
}
