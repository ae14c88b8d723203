package entity

import (
	"regexp"
	"strings"
	"time"
)

// emailPattern повторяет проверку формы входа на клиенте
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User представляет кандидата, хотя бы раз прошедшего вход.
// Email является уникальным ключом коллекции.
type User struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	LastLogin time.Time `json:"lastLogin"`
}

// IsActiveSince возвращает true, если последний вход был не раньше since
func (u *User) IsActiveSince(since time.Time) bool {
	return !u.LastLogin.Before(since)
}

// IsValidEmail проверяет форму адреса (не его существование)
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
