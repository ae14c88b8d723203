package service

import (
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

func TestNewResendEmailService_RequiresSettings(t *testing.T) {
	_, err := NewResendEmailService("", "noreply@x.com")
	assert.Error(t, err)

	_, err = NewResendEmailService("re_123", "")
	assert.Error(t, err)

	s, err := NewResendEmailService("re_123", "noreply@x.com")
	assert.NoError(t, err)
	assert.NotNil(t, s)
}

func TestResendRetryDelay(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		attempt   int
		wantWait  time.Duration
		wantRetry bool
	}{
		{"rate limit с Retry-After", &resend.RateLimitError{RetryAfter: "2"}, 0, 2 * time.Second, true},
		{"rate limit с большим Retry-After", &resend.RateLimitError{RetryAfter: "120"}, 0, 30 * time.Second, true},
		{"rate limit без Retry-After", &resend.RateLimitError{}, 1, 2 * time.Second, true},
		{"таймаут", errors.New("request timeout"), 0, 500 * time.Millisecond, true},
		{"постоянная ошибка", errors.New("invalid api key"), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wait, retry := resendRetryDelay(tt.err, tt.attempt)
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestReceiptBody(t *testing.T) {
	sub := entity.Submission{
		ID:          "abc",
		User:        "a@x.com",
		Answers:     entity.Answers{"1": entity.Option("A"), "2": nil},
		SubmittedAt: fixedNow(),
	}

	text, html := receiptBody(sub)

	assert.Contains(t, text, "Answered: 1")
	assert.Contains(t, text, "Skipped: 1")
	assert.Contains(t, text, "abc")
	assert.Contains(t, html, "<strong>1</strong>")
}
