package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/assessment-api/internal/service"
)

// AuthHandler обрабатывает вход кандидатов
type AuthHandler struct {
	userService *service.UserService
}

// NewAuthHandler создает новый обработчик входа
func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// LoginRequest - тело POST /api/login
type LoginRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// Login создает пользователя или обновляет время последнего входа
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNameEmailRequired})
		return
	}

	if _, _, err := h.userService.Login(req.Name, req.Email); err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login recorded"})
}
