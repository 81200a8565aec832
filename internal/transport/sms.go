package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSStatus is the outcome of an SMS send attempt.
type SMSStatus string

const (
	// SMSSent means the provider accepted the message.
	SMSSent SMSStatus = "sent"
	// SMSMocked means no provider is configured and the message was logged.
	SMSMocked SMSStatus = "mocked"
	// SMSError means the provider rejected the message or the request failed.
	SMSError SMSStatus = "error"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) SMSStatus
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	logger     *slog.Logger
}

// NewTwilioSender creates a Twilio-backed sender. Returns nil when
// credentials are missing; callers should fall back to NewMockSMSSender.
func NewTwilioSender(accountSID, authToken, from string, logger *slog.Logger) *TwilioSender {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Send posts the message to the Twilio messages endpoint. Failures are
// logged and reported as SMSError, never returned as errors.
func (s *TwilioSender) Send(ctx context.Context, phone, message string) SMSStatus {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.from)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		s.logger.ErrorContext(ctx, "sms request build failed", "error", err)
		return SMSError
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "sms delivery failed", "to", phone, "error", err)
		return SMSError
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return SMSSent
	}
	s.logger.WarnContext(ctx, "sms delivery rejected", "to", phone, "status", resp.StatusCode)
	return SMSError
}

// MockSMSSender logs messages instead of sending them, for development and tests.
type MockSMSSender struct {
	logger *slog.Logger
}

// NewMockSMSSender returns a sender that logs and reports SMSMocked.
func NewMockSMSSender(logger *slog.Logger) *MockSMSSender {
	return &MockSMSSender{logger: logger}
}

// Send logs the message and reports SMSMocked.
func (s *MockSMSSender) Send(ctx context.Context, phone, message string) SMSStatus {
	s.logger.InfoContext(ctx, "sms send (mock)", "to", phone, "message", message)
	return SMSMocked
}
