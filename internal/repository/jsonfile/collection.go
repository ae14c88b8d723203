package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/pkg/fsutil"
)

// Options содержит настройки записи коллекций
type Options struct {
	// WriteRetries - общее число попыток записи файла (включая первую)
	WriteRetries uint
	// RetryInitialInterval - пауза перед второй попыткой, далее растёт экспоненциально
	RetryInitialInterval time.Duration
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		WriteRetries:         3,
		RetryInitialInterval: 50 * time.Millisecond,
	}
}

// Collection - одна коллекция записей, целиком хранящаяся в JSON-массиве в файле.
// Все операции над файлом сериализуются мьютексом коллекции, поэтому
// read-modify-write через Update не теряет параллельные изменения.
type Collection[T any] struct {
	path string
	opts Options
	mu   sync.Mutex
}

// NewCollection создает коллекцию, привязанную к файлу path
func NewCollection[T any](path string, opts Options) *Collection[T] {
	if opts.WriteRetries == 0 {
		opts.WriteRetries = 1
	}
	return &Collection[T]{path: path, opts: opts}
}

// Path возвращает путь к файлу коллекции
func (c *Collection[T]) Path() string {
	return c.path
}

// Read возвращает все записи в порядке файла.
// Отсутствующий файл создается с пустым массивом.
func (c *Collection[T]) Read() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked()
}

// Write целиком заменяет содержимое коллекции
func (c *Collection[T]) Write(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(items)
}

// Update выполняет read-modify-write под мьютексом коллекции.
// Если fn возвращает ошибку, файл не изменяется.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.readLocked()
	if err != nil {
		return err
	}
	updated, err := fn(items)
	if err != nil {
		return err
	}
	return c.writeLocked(updated)
}

func (c *Collection[T]) readLocked() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[JSONStore] Файл %s не найден, создаю пустую коллекцию", c.path)
		if err := c.writeLocked([]T{}); err != nil {
			return nil, err
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperrors.ErrStorage, c.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", apperrors.ErrStorage, c.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) writeLocked(items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", apperrors.ErrStorage, c.path, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryInitialInterval

	attempt := 0
	_, err = backoff.Retry(context.Background(), func() (struct{}, error) {
		attempt++
		if err := fsutil.WriteFileAtomic(c.path, data); err != nil {
			log.Printf("[JSONStore] Ошибка записи %s (попытка %d): %v", c.path, attempt, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.opts.WriteRetries))
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", apperrors.ErrStorage, c.path, err)
	}
	return nil
}
