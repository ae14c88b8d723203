package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/service"
)

// AdminHandler отдает коллекции для панели администратора.
// Эндпоинты не защищены: панель проверяет учетные данные на стороне клиента.
type AdminHandler struct {
	userService       *service.UserService
	submissionService *service.SubmissionService
	questionService   *service.QuestionService
}

// NewAdminHandler создает новый обработчик панели администратора
func NewAdminHandler(
	userService *service.UserService,
	submissionService *service.SubmissionService,
	questionService *service.QuestionService,
) *AdminHandler {
	return &AdminHandler{
		userService:       userService,
		submissionService: submissionService,
		questionService:   questionService,
	}
}

// ListUsers возвращает всех пользователей
// GET /api/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		if degradedRead("AdminHandler", err) {
			c.JSON(http.StatusOK, []entity.User{})
			return
		}
		handleError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListSubmissions возвращает все отправки
// GET /api/submissions
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.submissionService.List()
	if err != nil {
		if degradedRead("AdminHandler", err) {
			c.JSON(http.StatusOK, []entity.Submission{})
			return
		}
		handleError(c, "AdminHandler", err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

// DebugUsers возвращает пользователей вместе с их количеством.
// Регистрируется только вне release-режима.
// GET /api/debug-users
func (h *AdminHandler) DebugUsers(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		if !degradedRead("AdminHandler", err) {
			handleError(c, "AdminHandler", err)
			return
		}
		users = []entity.User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"totalUsers": len(users),
		"users":      users,
	})
}
