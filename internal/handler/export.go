package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// ExportSubmissions экспортирует отправки в CSV или Excel формате
// GET /api/submissions/export?format=csv|xlsx
func (h *AdminHandler) ExportSubmissions(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	submissions, err := h.submissionService.List()
	if err != nil {
		handleError(c, "AdminHandler", err)
		return
	}

	// Колонки по вопросам берутся из текущего банка; без него экспорт остается сводным
	questions, err := h.questionService.List()
	if err != nil {
		log.Printf("[AdminHandler] Вопросы недоступны, экспорт без колонок ответов: %v", err)
		questions = nil
	}

	filename := fmt.Sprintf("submissions_%s", time.Now().Format("2006-01-02"))
	header, rows := submissionTable(submissions, questions)

	switch format {
	case "xlsx":
		exportXLSX(c, header, rows, filename)
	default:
		exportCSV(c, header, rows, filename)
	}
}

// submissionTable строит заголовок и строки: одна строка на отправку
func submissionTable(submissions []entity.Submission, questions []entity.Question) ([]string, [][]string) {
	header := []string{"ID", "User", "Submitted At", "Answered", "Skipped"}
	for _, q := range questions {
		header = append(header, "Q "+q.ID.String())
	}

	rows := make([][]string, 0, len(submissions))
	for _, s := range submissions {
		row := []string{
			s.ID,
			sanitizeForExcel(s.User),
			s.SubmittedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(s.Answers.AnsweredCount()),
			strconv.Itoa(s.Answers.SkippedCount()),
		}
		for _, q := range questions {
			answer := ""
			if v := s.Answers[q.ID.Key()]; v != nil {
				answer = sanitizeForExcel(*v)
			}
			row = append(row, answer)
		}
		rows = append(rows, row)
	}
	return header, rows
}

// exportCSV пишет таблицу в CSV с правильным экранированием спецсимволов
func exportCSV(c *gin.Context, header []string, rows [][]string, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(header)
	for _, row := range rows {
		writer.Write(row)
	}
}

// exportXLSX пишет таблицу в Excel с использованием StreamWriter
func exportXLSX(c *gin.Context, header []string, rows [][]string, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Submissions"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[AdminHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if err := sw.SetRow("A1", toCells(header)); err != nil {
		log.Printf("[AdminHandler] Ошибка записи заголовков: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			log.Printf("[AdminHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[AdminHandler] Ошибка при Flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AdminHandler] Ошибка записи Excel в response: %v", err)
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
