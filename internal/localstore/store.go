// Package localstore хранит состояние терминального клиента между запусками:
// строковые ключи и JSON-значения в одном файле.
package localstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/yourusername/assessment-api/pkg/fsutil"
)

// Ключи, которые использует клиент
const (
	KeyUser              = "user"
	KeyUserEmail         = "userEmail"
	KeyTestAnswers       = "testAnswers"
	KeyPendingSubmission = "pendingSubmission"
	KeyIsAdmin           = "isAdmin"
	KeyAdminEmail        = "adminEmail"
)

// Storage - интерфейс локального хранилища клиента
type Storage interface {
	Get(key string, dest interface{}) (bool, error)
	Set(key string, value interface{}) error
	Remove(keys ...string) error
	Clear() error
}

// Store - файловая реализация Storage. Каждое изменение переписывает файл целиком.
type Store struct {
	path string
	mu   sync.Mutex
}

// New создает хранилище в файле path. Файл создается при первой записи.
func New(path string) *Store {
	return &Store{path: path}
}

// Path возвращает путь к файлу хранилища
func (s *Store) Path() string {
	return s.path
}

// Get декодирует значение ключа в dest. Возвращает false, если ключа нет.
func (s *Store) Get(key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("localstore: decode %q: %w", key, err)
	}
	return true, nil
}

// Set сохраняет значение ключа
func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("localstore: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = raw
	return s.save(values)
}

// Remove удаляет ключи; отсутствующие ключи игнорируются
func (s *Store) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, key := range keys {
		if _, ok := values[key]; ok {
			delete(values, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(values)
}

// Clear удаляет все ключи
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]json.RawMessage{})
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	values := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("localstore: decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) save(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", s.path, err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("localstore: write %s: %w", s.path, err)
	}
	return nil
}
