// Package admin - клиентская панель администратора: вход по статическим
// учетным данным и сводка по пользователям и отправкам.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/localstore"
	"golang.org/x/crypto/bcrypt"
)

// Ошибки панели администратора
var (
	ErrInvalidCredentials = errors.New("admin: invalid email or password")
	ErrNotLoggedIn        = errors.New("admin: not logged in")
)

// ActiveWindow - пользователь считается активным, если входил за это время
const ActiveWindow = 24 * time.Hour

// API - вызовы сервера, которые нужны панели
type API interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	ListSubmissions(ctx context.Context) ([]entity.Submission, error)
}

// SubmissionSummary - строка таблицы отправок
type SubmissionSummary struct {
	ID          string
	User        string
	UserName    string
	SubmittedAt time.Time
	Answered    int
	Skipped     int
	Answers     entity.Answers
}

// Dashboard - сводка для панели
type Dashboard struct {
	TotalUsers       int
	ActiveUsers      int
	TotalSubmissions int
	// Users отсортированы по последнему входу, новые первыми
	Users []entity.User
	// Submissions отсортированы по времени отправки, новые первыми
	Submissions []SubmissionSummary
	GeneratedAt time.Time
}

// View - панель администратора. Флаг входа хранится локально и ничем не защищен.
type View struct {
	api     API
	storage localstore.Storage
	creds   config.AdminConfig
	now     func() time.Time
}

// NewView создает панель администратора
func NewView(api API, storage localstore.Storage, creds config.AdminConfig) *View {
	return &View{
		api:     api,
		storage: storage,
		creds:   creds,
		now:     time.Now,
	}
}

// Login сверяет учетные данные с настроенными и запоминает вход
func (v *View) Login(email, password string) error {
	email = strings.TrimSpace(email)
	if v.creds.Email == "" || v.creds.Password == "" {
		log.Printf("[AdminView] Учетные данные администратора не настроены")
		return ErrInvalidCredentials
	}
	if email != v.creds.Email || !v.passwordMatches(password) {
		return ErrInvalidCredentials
	}

	if err := v.storage.Set(localstore.KeyIsAdmin, true); err != nil {
		return fmt.Errorf("save admin flag: %w", err)
	}
	if err := v.storage.Set(localstore.KeyAdminEmail, email); err != nil {
		return fmt.Errorf("save admin email: %w", err)
	}
	return nil
}

func (v *View) passwordMatches(password string) bool {
	configured := v.creds.Password
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Logout снимает флаг входа
func (v *View) Logout() error {
	return v.storage.Remove(localstore.KeyIsAdmin, localstore.KeyAdminEmail)
}

// Current возвращает email вошедшего администратора
func (v *View) Current() (string, bool) {
	var isAdmin bool
	if ok, err := v.storage.Get(localstore.KeyIsAdmin, &isAdmin); err != nil || !ok || !isAdmin {
		return "", false
	}
	var email string
	if _, err := v.storage.Get(localstore.KeyAdminEmail, &email); err != nil {
		return "", false
	}
	return email, true
}

// Dashboard загружает пользователей и отправки и считает сводку
func (v *View) Dashboard(ctx context.Context) (*Dashboard, error) {
	if _, ok := v.Current(); !ok {
		return nil, ErrNotLoggedIn
	}

	users, err := v.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	submissions, err := v.api.ListSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	return Summarize(users, submissions, v.now()), nil
}

// Summarize строит сводку на момент now
func Summarize(users []entity.User, submissions []entity.Submission, now time.Time) *Dashboard {
	since := now.Add(-ActiveWindow)
	names := make(map[string]string, len(users))
	active := 0
	for i := range users {
		names[users[i].Email] = users[i].Name
		if users[i].IsActiveSince(since) {
			active++
		}
	}

	sortedUsers := make([]entity.User, len(users))
	copy(sortedUsers, users)
	sort.SliceStable(sortedUsers, func(i, j int) bool {
		return sortedUsers[i].LastLogin.After(sortedUsers[j].LastLogin)
	})

	summaries := make([]SubmissionSummary, 0, len(submissions))
	for _, s := range submissions {
		summaries = append(summaries, SubmissionSummary{
			ID:          s.ID,
			User:        s.User,
			UserName:    names[s.User],
			SubmittedAt: s.SubmittedAt,
			Answered:    s.Answers.AnsweredCount(),
			Skipped:     s.Answers.SkippedCount(),
			Answers:     s.Answers,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].SubmittedAt.After(summaries[j].SubmittedAt)
	})

	return &Dashboard{
		TotalUsers:       len(users),
		ActiveUsers:      active,
		TotalSubmissions: len(submissions),
		Users:            sortedUsers,
		Submissions:      summaries,
		GeneratedAt:      now,
	}
}
