package service

import (
	"fmt"

	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
)

// Ошибки валидации входных данных сервисов
var (
	ErrNameEmailRequired = fmt.Errorf("%w: name and email required", apperrors.ErrValidation)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email format", apperrors.ErrValidation)
	ErrAnswersRequired   = fmt.Errorf("%w: user and answers required", apperrors.ErrValidation)
)
