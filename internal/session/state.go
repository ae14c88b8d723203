package session

import (
	"errors"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// State - состояние сессии прохождения теста
type State int

const (
	Loading State = iota
	Active
	Submitting
	Submitted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Ошибки переходов сессии
var (
	ErrNoQuestions        = errors.New("session: question bank is empty")
	ErrNotLoading         = errors.New("session: already loaded")
	ErrLoadInProgress     = errors.New("session: load in progress")
	ErrNotActive          = errors.New("session: not active")
	ErrNotAnswered        = errors.New("session: current question has no answer")
	ErrLastQuestion       = errors.New("session: already on the last question")
	ErrNotOnFinalQuestion = errors.New("session: submit is only allowed on the final question")
	ErrInvalidOption      = errors.New("session: option does not belong to the current question")
	ErrSubmissionPending  = errors.New("session: submission failed and was saved for retry")
	ErrNoIdentity         = errors.New("session: user email is required")
)

// PendingSubmission - полный набор ответов, который не удалось отправить по таймауту.
// Хранится в локальном хранилище до следующей успешной отправки.
type PendingSubmission struct {
	User     string         `json:"user"`
	Answers  entity.Answers `json:"answers"`
	FailedAt time.Time      `json:"failedAt"`
}

// Snapshot - копия состояния сессии только для чтения
type Snapshot struct {
	State        State
	Questions    []entity.Question
	CurrentIndex int
	Answers      entity.Answers
	TimeLeft     time.Duration
	// Result - отправленный набор ответов (после Submitted)
	Result entity.Answers
	// Pending - набор ответов сохранен локально и ждет повторной отправки
	Pending bool
	// Resumed - Load отправил сохраненный ранее набор вместо новой сессии
	Resumed bool
}

// Current возвращает текущий вопрос, если сессия активна
func (s Snapshot) Current() (entity.Question, bool) {
	if s.State != Active || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return entity.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// IsLast сообщает, что текущий вопрос последний
func (s Snapshot) IsLast() bool {
	return len(s.Questions) > 0 && s.CurrentIndex == len(s.Questions)-1
}

// CurrentAnswer возвращает записанный ответ на текущий вопрос
func (s Snapshot) CurrentAnswer() *string {
	q, ok := s.Current()
	if !ok {
		return nil
	}
	return s.Answers[q.ID.Key()]
}

// EventType - тип уведомления об изменении сессии
type EventType string

const (
	EventLoaded        EventType = "loaded"
	EventAnswerChanged EventType = "answer_changed"
	EventMoved         EventType = "moved"
	EventTick          EventType = "tick"
	EventSubmitting    EventType = "submitting"
	EventSubmitted     EventType = "submitted"
	EventSubmitFailed  EventType = "submit_failed"
	EventPending       EventType = "pending"
)

// Event - уведомление об изменении сессии со снимком состояния после него
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
