package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

func createTestUserService(repo *MockUserRepository, b EventBroadcaster) *UserService {
	s := NewUserService(repo, b)
	s.now = fixedNow
	return s
}

func TestUserService_Login_TrimsAndUpserts(t *testing.T) {
	// Arrange
	repo := new(MockUserRepository)
	b := &recordingBroadcaster{}
	s := createTestUserService(repo, b)

	expected := entity.User{Name: "Alice", Email: "a@x.com", LastLogin: fixedNow().UTC()}
	repo.On("Upsert", expected).Return(true, nil)

	// Act
	user, created, err := s.Login("  Alice ", " a@x.com  ")

	// Assert
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, expected, *user)
	assert.Equal(t, []string{EventUserLogin}, b.events)
	repo.AssertExpectations(t)
}

func TestUserService_Login_Validation(t *testing.T) {
	tests := []struct {
		name    string
		inName  string
		inEmail string
		wantErr error
	}{
		{"пустое имя", "", "a@x.com", ErrNameEmailRequired},
		{"только пробелы", "   ", "a@x.com", ErrNameEmailRequired},
		{"пустой email", "Alice", "", ErrNameEmailRequired},
		{"некорректный email", "Alice", "not-an-email", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			s := createTestUserService(repo, nil)

			_, _, err := s.Login(tt.inName, tt.inEmail)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			repo.AssertNotCalled(t, "Upsert", mock.Anything)
		})
	}
}

func TestUserService_Login_StorageError(t *testing.T) {
	repo := new(MockUserRepository)
	b := &recordingBroadcaster{}
	s := createTestUserService(repo, b)
	storageErr := fmt.Errorf("%w: disk full", apperrors.ErrStorage)
	repo.On("Upsert", mock.Anything).Return(false, storageErr)

	_, _, err := s.Login("Alice", "a@x.com")

	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.Empty(t, b.events, "событие не должно рассылаться при ошибке записи")
}

func TestUserService_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		setup      func(repo *MockUserRepository)
		wantErr    bool
		wantCalled bool
	}{
		{
			name:    "пустой заголовок",
			email:   "",
			setup:   func(repo *MockUserRepository) {},
			wantErr: true,
		},
		{
			name:  "известный пользователь",
			email: "a@x.com",
			setup: func(repo *MockUserRepository) {
				repo.On("Exists", "a@x.com").Return(true, nil)
			},
			wantCalled: true,
		},
		{
			name:  "неизвестный пользователь",
			email: "unknown@x.com",
			setup: func(repo *MockUserRepository) {
				repo.On("Exists", "unknown@x.com").Return(false, nil)
			},
			wantErr:    true,
			wantCalled: true,
		},
		{
			name:  "хранилище недоступно",
			email: "a@x.com",
			setup: func(repo *MockUserRepository) {
				repo.On("Exists", "a@x.com").Return(false, apperrors.ErrStorage)
			},
			wantErr:    true,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setup(repo)
			s := createTestUserService(repo, nil)

			err := s.Authenticate(tt.email)

			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
			if !tt.wantCalled {
				repo.AssertNotCalled(t, "Exists", mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetByEmail_NotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", "a@x.com").Return(nil, apperrors.ErrNotFound)
	s := createTestUserService(repo, nil)

	user, err := s.GetByEmail("a@x.com")

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUserService_List(t *testing.T) {
	repo := new(MockUserRepository)
	users := []entity.User{{Name: "A", Email: "a@x.com"}, {Name: "B", Email: "b@x.com"}}
	repo.On("List").Return(users, nil)
	s := createTestUserService(repo, nil)

	got, err := s.List()

	require.NoError(t, err)
	assert.Equal(t, users, got)
}
