package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/procura/backend/internal/domain/notification"
	infraconfig "github.com/procura/backend/internal/infrastructure/config"
)

// maxEmailResponseSize limits the response body size to prevent memory exhaustion
const maxEmailResponseSize = 64 * 1024 // 64KB max response

// HTTPEmailSender delivers transactional email through an HTTP mail API.
// When outbound email is disabled, sends are dropped silently so that
// development environments need no mail credentials
type HTTPEmailSender struct {
	enabled    bool
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewHTTPEmailSender creates a sender against the configured mail API
func NewHTTPEmailSender(cfg *infraconfig.EmailConfig) *HTTPEmailSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPEmailSender{
		enabled:  cfg.Enabled,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// emailRequest is the mail API envelope
type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one email to one recipient
func (s *HTTPEmailSender) Send(ctx context.Context, msg notification.EmailMessage) error {
	if !s.enabled {
		return nil
	}

	bodyBytes, err := json.Marshal(emailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("email: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxEmailResponseSize))
		return fmt.Errorf("email: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Ensure HTTPEmailSender implements the email sender interface
var _ notification.EmailSender = (*HTTPEmailSender)(nil)
