package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo    repository.UserRepository
	broadcaster EventBroadcaster
	now         func() time.Time
}

// NewUserService создает новый сервис пользователей.
// broadcaster может быть nil, тогда события не рассылаются.
func NewUserService(userRepo repository.UserRepository, broadcaster EventBroadcaster) *UserService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &UserService{
		userRepo:    userRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Login регистрирует вход: создает пользователя или обновляет имя и lastLogin.
// Возвращает сохраненную запись и признак создания новой записи.
func (s *UserService) Login(name, email string) (*entity.User, bool, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		return nil, false, ErrNameEmailRequired
	}
	if !entity.IsValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}

	user := entity.User{
		Name:      name,
		Email:     email,
		LastLogin: s.now().UTC(),
	}

	created, err := s.userRepo.Upsert(user)
	if err != nil {
		log.Printf("[UserService] Ошибка при сохранении входа пользователя %s: %v", email, err)
		return nil, false, err
	}

	if created {
		log.Printf("[UserService] Новый пользователь %s (%s)", email, name)
	} else {
		log.Printf("[UserService] Повторный вход пользователя %s", email)
	}

	s.broadcaster.Broadcast(EventUserLogin, user)

	return &user, created, nil
}

// Authenticate проверяет заявленный email: он должен точно совпадать с email
// существующего пользователя. Это не граница безопасности, а лишь идентификация.
func (s *UserService) Authenticate(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email header required", apperrors.ErrUnauthorized)
	}

	exists, err := s.userRepo.Exists(email)
	if err != nil {
		log.Printf("[UserService] Не удалось проверить пользователя %s: %v", email, err)
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if !exists {
		return fmt.Errorf("%w: user %s not logged in", apperrors.ErrUnauthorized, email)
	}
	return nil
}

// GetByEmail возвращает пользователя по email
func (s *UserService) GetByEmail(email string) (*entity.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[UserService] Ошибка при получении пользователя %s: %v", email, err)
		}
		return nil, err
	}
	return user, nil
}

// List возвращает всех пользователей в порядке хранения
func (s *UserService) List() ([]entity.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		log.Printf("[UserService] Ошибка при получении списка пользователей: %v", err)
		return nil, err
	}
	return users, nil
}
