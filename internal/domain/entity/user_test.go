package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONFieldNames(t *testing.T) {
	// Формат записи должен совпадать с существующими файлами users.json
	lastLogin := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	user := User{Name: "Alice", Email: "a@x.com", LastLogin: lastLogin}

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alice","email":"a@x.com","lastLogin":"2025-01-02T03:04:05Z"}`, string(data))
}

func TestUser_DecodesISOTimestampWithMillis(t *testing.T) {
	// Существующие файлы содержат toISOString() с миллисекундами
	var user User
	err := json.Unmarshal([]byte(`{"name":"Bob","email":"b@x.com","lastLogin":"2025-03-01T10:20:30.123Z"}`), &user)

	require.NoError(t, err)
	assert.Equal(t, 123*time.Millisecond, time.Duration(user.LastLogin.Nanosecond()))
}

func TestUser_IsActiveSince(t *testing.T) {
	now := time.Now()
	user := &User{LastLogin: now.Add(-2 * time.Hour)}

	assert.True(t, user.IsActiveSince(now.Add(-24*time.Hour)))
	assert.False(t, user.IsActiveSince(now.Add(-time.Hour)))
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"  a@x.com  ", true},
		{"first.last@sub.example.org", true},
		{"not-an-email", false},
		{"a@x", false},
		{"a b@x.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}
