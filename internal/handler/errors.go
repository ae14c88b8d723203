package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// Тексты ошибок, которые ожидают существующие клиенты
const (
	msgNameEmailRequired   = "Name and Email required"
	msgInvalidEmail        = "Invalid email format"
	msgUserAnswersRequired = "User and answers required"
	msgAnswersNotStrings   = "Answers must be strings or null"
	msgInternal            = "Internal server error"
)

// handleError преобразует ошибку сервиса в HTTP-ответ
func handleError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, service.ErrNameEmailRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNameEmailRequired})
	case errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidEmail})
	case errors.Is(err, service.ErrAnswersRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgUserAnswersRequired})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not logged in"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in %s: %v", component, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// degradedRead решает, можно ли отдать пустую коллекцию вместо ошибки чтения.
// Эндпоинты только для чтения сохраняют прежнее поведение: ошибка хранилища
// логируется, клиент получает пустой список.
func degradedRead(component string, err error) bool {
	if errors.Is(err, apperrors.ErrStorage) {
		log.Printf("[%s] Хранилище недоступно, отдаем пустой список: %v", component, err)
		return true
	}
	return false
}
