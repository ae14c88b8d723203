package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда заявленный email не найден среди пользователей.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrStorage используется, когда файл коллекции не удалось прочитать или записать.
	// Позволяет отличить "коллекция пуста" от "коллекция недоступна".
	ErrStorage = errors.New("storage failure")
)
