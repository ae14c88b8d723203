package repository

import (
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	List() ([]entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Exists(email string) (bool, error)
	// Upsert создает пользователя или обновляет name и lastLogin существующего.
	// Возвращает true, если запись была создана.
	Upsert(user entity.User) (bool, error)
}
