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

// maxFCMResponseSize limits the response body size to prevent memory exhaustion
const maxFCMResponseSize = 1 * 1024 * 1024 // 1MB max response

// FCM result error strings that mean the token is gone for good
const (
	fcmErrNotRegistered       = "NotRegistered"
	fcmErrInvalidRegistration = "InvalidRegistration"
	fcmErrMismatchSenderID    = "MismatchSenderId"
)

// FCMSender delivers push messages through the FCM legacy HTTP API.
// It sends one message per token; retry policy belongs to the caller
type FCMSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

// NewFCMSender creates a sender against the configured FCM endpoint
func NewFCMSender(cfg *infraconfig.PushConfig) *FCMSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FCMSender{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// fcmRequest is the legacy downstream message envelope
type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// fcmResponse is the legacy API result envelope. The HTTP status is 200
// even when the token is dead; the per-message result carries the error
type fcmResponse struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Results []fcmResult `json:"results"`
}

type fcmResult struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send delivers one message to one token. A dead token is reported as
// notification.ErrTokenUnregistered; everything else is transient
func (s *FCMSender) Send(ctx context.Context, token string, msg notification.PushMessage) error {
	payload := fcmRequest{
		To: token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
	}
	if msg.Type != "" || msg.Data != "" {
		payload.Data = map[string]string{"type": string(msg.Type)}
		if msg.Data != "" {
			payload.Data["payload"] = msg.Data
		}
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fcm: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("fcm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFCMResponseSize))
	if err != nil {
		return fmt.Errorf("fcm: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fcm: HTTP %d", resp.StatusCode)
	}

	var result fcmResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("fcm: failed to parse response: %w", err)
	}

	if result.Failure == 0 {
		return nil
	}
	if len(result.Results) == 0 {
		return fmt.Errorf("fcm: delivery failed without result detail")
	}

	switch result.Results[0].Error {
	case fcmErrNotRegistered, fcmErrInvalidRegistration, fcmErrMismatchSenderID:
		return fmt.Errorf("fcm: %s: %w", result.Results[0].Error, notification.ErrTokenUnregistered)
	default:
		return fmt.Errorf("fcm: delivery failed: %s", result.Results[0].Error)
	}
}

// Ensure FCMSender implements the push sender interface
var _ notification.PushSender = (*FCMSender)(nil)
