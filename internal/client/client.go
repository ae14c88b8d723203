// Package client - HTTP-клиент API оценки для терминального клиента.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// UserEmailHeader - заголовок с заявленным email
const UserEmailHeader = "x-user-email"

// APIError - ответ сервера с кодом, отличным от 2xx
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsUnauthorized сообщает, что сервер не узнал пользователя
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// APIClient обращается к серверу оценки
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// New создает клиента для baseURL
func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login регистрирует вход кандидата
func (c *APIClient) Login(ctx context.Context, name, email string) error {
	body := map[string]string{"name": name, "email": email}
	return c.do(ctx, http.MethodPost, "/api/login", "", body, nil)
}

// GetQuestions загружает банк вопросов от имени email
func (c *APIClient) GetQuestions(ctx context.Context, email string) ([]entity.Question, error) {
	var questions []entity.Question
	if err := c.do(ctx, http.MethodGet, "/api/questions", email, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Submit отправляет полный набор ответов
func (c *APIClient) Submit(ctx context.Context, user string, answers entity.Answers) error {
	if answers == nil {
		answers = entity.Answers{}
	}
	body := struct {
		User    string         `json:"user"`
		Answers entity.Answers `json:"answers"`
	}{User: user, Answers: answers}
	return c.do(ctx, http.MethodPost, "/api/submit", user, body, nil)
}

// ListUsers возвращает всех пользователей
func (c *APIClient) ListUsers(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := c.do(ctx, http.MethodGet, "/api/users", "", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListSubmissions возвращает все отправки
func (c *APIClient) ListSubmissions(ctx context.Context) ([]entity.Submission, error) {
	var submissions []entity.Submission
	if err := c.do(ctx, http.MethodGet, "/api/submissions", "", nil, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// Health проверяет доступность сервера
func (c *APIClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, method, path, email string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set(UserEmailHeader, email)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
