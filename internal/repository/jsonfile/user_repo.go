package jsonfile

import (
	"fmt"

	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository поверх users.json
type UserRepo struct {
	users *Collection[entity.User]
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(users *Collection[entity.User]) *UserRepo {
	return &UserRepo{users: users}
}

// List возвращает всех пользователей в порядке первого входа
func (r *UserRepo) List() ([]entity.User, error) {
	return r.users.Read()
}

// GetByEmail ищет пользователя линейным проходом по коллекции
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	users, err := r.users.Read()
	if err != nil {
		return nil, err
	}
	if i := indexByEmail(users, email); i >= 0 {
		user := users[i]
		return &user, nil
	}
	return nil, fmt.Errorf("user %q: %w", email, apperrors.ErrNotFound)
}

// Exists проверяет наличие пользователя с точно таким email
func (r *UserRepo) Exists(email string) (bool, error) {
	users, err := r.users.Read()
	if err != nil {
		return false, err
	}
	return indexByEmail(users, email) >= 0, nil
}

// Upsert создает пользователя или обновляет name и lastLogin существующего
func (r *UserRepo) Upsert(user entity.User) (bool, error) {
	created := false
	err := r.users.Update(func(users []entity.User) ([]entity.User, error) {
		if i := indexByEmail(users, user.Email); i >= 0 {
			users[i].Name = user.Name
			users[i].LastLogin = user.LastLogin
			return users, nil
		}
		created = true
		return append(users, user), nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func indexByEmail(users []entity.User, email string) int {
	for i := range users {
		if users[i].Email == email {
			return i
		}
	}
	return -1
}
