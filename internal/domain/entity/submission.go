package entity

import (
	"time"
)

// Answers отображает id вопроса в выбранный вариант.
// nil означает, что вопрос пропущен.
type Answers map[string]*string

// Option возвращает указатель на копию строки, удобно для заполнения Answers
func Option(s string) *string {
	return &s
}

// Complete строит полный набор ответов: по одной записи на каждый вопрос банка.
// Вопросы, на которые не было ответа, получают nil.
func (a Answers) Complete(questions []Question) Answers {
	complete := make(Answers, len(questions))
	for _, q := range questions {
		var value *string
		if v, ok := a[q.ID.Key()]; ok && v != nil {
			value = Option(*v)
		}
		complete[q.ID.Key()] = value
	}
	return complete
}

// AnsweredCount возвращает количество вопросов с выбранным вариантом
func (a Answers) AnsweredCount() int {
	count := 0
	for _, v := range a {
		if v != nil {
			count++
		}
	}
	return count
}

// SkippedCount возвращает количество пропущенных вопросов
func (a Answers) SkippedCount() int {
	return len(a) - a.AnsweredCount()
}

// Clone возвращает глубокую копию
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	out := make(Answers, len(a))
	for k, v := range a {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = Option(*v)
	}
	return out
}

// Submission - запись о завершенном прохождении теста.
// Коллекция только пополняется, один пользователь может отправить тест несколько раз.
type Submission struct {
	ID          string    `json:"id,omitempty"`
	User        string    `json:"user"`
	Answers     Answers   `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}
