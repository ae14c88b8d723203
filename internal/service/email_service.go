package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// EmailService отправляет транзакционные письма.
type EmailService interface {
	SendSubmissionReceipt(ctx context.Context, submission entity.Submission) error
}

// NoopEmailService используется, когда отправка писем не настроена.
type NoopEmailService struct{}

func (s *NoopEmailService) SendSubmissionReceipt(ctx context.Context, submission entity.Submission) error {
	log.Printf("[EmailService] noop submission receipt to=%s id=%s", submission.User, submission.ID)
	return nil
}

// ResendEmailService отправляет письма через Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendSubmissionReceipt(ctx context.Context, submission entity.Submission) error {
	if submission.User == "" || submission.ID == "" {
		return fmt.Errorf("submission user and id are required")
	}

	text, htmlBody := receiptBody(submission)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{submission.User},
		Subject: "Your assessment was submitted",
		Text:    text,
		Html:    htmlBody,
	}

	// Повторная отправка той же квитанции не дублирует письмо
	options := &resend.SendEmailOptions{IdempotencyKey: "submission-" + submission.ID}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			log.Printf("[EmailService] Квитанция %s отправлена на %s", submission.ID, submission.User)
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func receiptBody(submission entity.Submission) (string, string) {
	answered := submission.Answers.AnsweredCount()
	skipped := submission.Answers.SkippedCount()
	at := submission.SubmittedAt.UTC().Format(time.RFC1123)

	text := fmt.Sprintf(
		"Your assessment was received on %s.\nAnswered: %d\nSkipped: %d\nReference: %s",
		at, answered, skipped, submission.ID,
	)
	htmlBody := fmt.Sprintf(
		"<p>Your assessment was received on %s.</p><p>Answered: <strong>%d</strong><br>Skipped: <strong>%d</strong></p><p>Reference: %s</p>",
		html.EscapeString(at), answered, skipped, html.EscapeString(submission.ID),
	)
	return text, htmlBody
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
