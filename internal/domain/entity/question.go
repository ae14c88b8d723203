package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// QuestionID - идентификатор вопроса.
// В файле вопросов id может быть как числом, так и строкой, поэтому
// сохраняем исходную форму и отдаём её обратно без изменений.
type QuestionID struct {
	key     string
	numeric bool
}

// NumericID создает числовой идентификатор
func NumericID(n int64) QuestionID {
	return QuestionID{key: strconv.FormatInt(n, 10), numeric: true}
}

// StringID создает строковый идентификатор
func StringID(s string) QuestionID {
	return QuestionID{key: s}
}

// Key возвращает строковое представление, используемое как ключ в Answers
func (id QuestionID) Key() string {
	return id.key
}

// String реализует fmt.Stringer
func (id QuestionID) String() string {
	return id.key
}

// IsZero сообщает, что id не был задан
func (id QuestionID) IsZero() bool {
	return id.key == "" && !id.numeric
}

// MarshalJSON реализует json.Marshaler
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.key), nil
	}
	return json.Marshal(id.key)
}

// UnmarshalJSON реализует json.Unmarshaler
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = QuestionID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id must be a number or a string: %w", err)
	}
	*id = QuestionID{key: n.String(), numeric: true}
	return nil
}

// ErrEmptyOptions возвращается для вопроса без вариантов ответа
var ErrEmptyOptions = errors.New("question has no options")

// Question представляет вопрос с вариантами ответа.
// Банк вопросов управляется извне, сервис его только читает.
type Question struct {
	ID       QuestionID `json:"id"`
	Question string     `json:"question"`
	Options  []string   `json:"options"`
}

// HasOption проверяет, что option является одним из вариантов вопроса
func (q *Question) HasOption(option string) bool {
	for _, opt := range q.Options {
		if opt == option {
			return true
		}
	}
	return false
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
