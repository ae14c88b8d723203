package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// Имена файлов коллекций в каталоге данных
const (
	UsersFile       = "users.json"
	SubmissionsFile = "submissions.json"
	QuestionsFile   = "questions.json"
)

// Store объединяет три независимые коллекции одного каталога данных
type Store struct {
	Users       *Collection[entity.User]
	Submissions *Collection[entity.Submission]
	Questions   *Collection[entity.Question]
}

// NewStore создает коллекции в каталоге dataDir
func NewStore(dataDir string, opts Options) *Store {
	return &Store{
		Users:       NewCollection[entity.User](filepath.Join(dataDir, UsersFile), opts),
		Submissions: NewCollection[entity.Submission](filepath.Join(dataDir, SubmissionsFile), opts),
		Questions:   NewCollection[entity.Question](filepath.Join(dataDir, QuestionsFile), opts),
	}
}

// Bootstrap гарантирует наличие файлов коллекций при старте.
// Если questions.json отсутствует и задан seedPath, банк вопросов копируется из него.
func (s *Store) Bootstrap(seedPath string) error {
	if seedPath != "" {
		if err := s.seedQuestions(seedPath); err != nil {
			return err
		}
	}

	users, err := s.Users.Read()
	if err != nil {
		return fmt.Errorf("bootstrap users: %w", err)
	}
	submissions, err := s.Submissions.Read()
	if err != nil {
		return fmt.Errorf("bootstrap submissions: %w", err)
	}
	questions, err := s.Questions.Read()
	if err != nil {
		return fmt.Errorf("bootstrap questions: %w", err)
	}

	log.Printf("[JSONStore] Коллекции готовы: users=%d submissions=%d questions=%d", len(users), len(submissions), len(questions))
	return nil
}

func (s *Store) seedQuestions(seedPath string) error {
	if _, err := os.Stat(s.Questions.Path()); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.Questions.Path(), err)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read question seed %s: %w", seedPath, err)
	}
	var questions []entity.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("decode question seed %s: %w", seedPath, err)
	}
	for i, q := range questions {
		if q.ID.IsZero() {
			return fmt.Errorf("question seed %s: question #%d has no id", seedPath, i+1)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question seed %s: question %s: %w", seedPath, q.ID, entity.ErrEmptyOptions)
		}
	}

	if err := s.Questions.Write(questions); err != nil {
		return err
	}
	log.Printf("[JSONStore] Банк вопросов загружен из %s (%d вопросов)", seedPath, len(questions))
	return nil
}
