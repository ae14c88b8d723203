package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/service"
)

// AssessmentHandler отдает вопросы и принимает ответы
type AssessmentHandler struct {
	questionService   *service.QuestionService
	submissionService *service.SubmissionService
}

// NewAssessmentHandler создает новый обработчик теста
func NewAssessmentHandler(questionService *service.QuestionService, submissionService *service.SubmissionService) *AssessmentHandler {
	return &AssessmentHandler{
		questionService:   questionService,
		submissionService: submissionService,
	}
}

// SubmitRequest - тело POST /api/submit
type SubmitRequest struct {
	User    string         `json:"user" binding:"required"`
	Answers entity.Answers `json:"answers" binding:"required"`
}

// GetQuestions возвращает весь банк вопросов
// GET /api/questions (за RequireUserEmail)
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	questions, err := h.questionService.List()
	if err != nil {
		if degradedRead("AssessmentHandler", err) {
			c.JSON(http.StatusOK, []entity.Question{})
			return
		}
		handleError(c, "AssessmentHandler", err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Submit записывает завершенный набор ответов
// POST /api/submit
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isAnswersTypeError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgAnswersNotStrings})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgUserAnswersRequired})
		return
	}

	if _, err := h.submissionService.Record(req.User, req.Answers); err != nil {
		handleError(c, "AssessmentHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission saved"})
}

// isAnswersTypeError сообщает, что answers пришли, но значения не строки и не null
func isAnswersTypeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return false
	}
	if typeErr.Field == "answers" || strings.HasPrefix(typeErr.Field, "answers.") {
		return true
	}
	// старые версии encoding/json не указывают ключ map в Field
	return typeErr.Field == "" && typeErr.Type != nil && typeErr.Type.Kind() == reflect.String
}

// Health отвечает, что процесс жив
// GET /health
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
