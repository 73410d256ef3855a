package notification

import (
	"context"
	"errors"
)

// ErrTokenUnregistered reports that the push provider no longer knows the
// token. Callers deactivate the device instead of retrying
var ErrTokenUnregistered = errors.New("push token no longer registered")

// PushMessage is the payload handed to the push transport
type PushMessage struct {
	Type  Type
	Title string
	Body  string
	// Data carries the notification payload verbatim as a JSON string
	Data string
}

// PushSender delivers a message to a single device token. Any error that
// is not ErrTokenUnregistered is treated as transient
type PushSender interface {
	Send(ctx context.Context, token string, msg PushMessage) error
}

// EmailMessage is one outbound transactional email
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender delivers transactional email. Scheduled sweeps use it for
// expiry warnings that must reach users who have no registered device
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
