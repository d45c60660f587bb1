package email

import (
	"context"
	"log/slog"
)

// NoopSender drops every message. It keeps nothing, so it is safe as a long-running default.
type NoopSender struct{}

// NewNoopSender creates a NoopSender.
func NewNoopSender() NoopSender {
	return NoopSender{}
}

// Send logs the message metadata without the recipient and reports success.
func (NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	slog.Debug("noop_email_send", "subject", req.Subject, "activity", req.Tags[TagActivity])
	id := req.IdempotencyKey
	if id == "" {
		id = "unkeyed"
	}
	return SendResult{MessageID: "noop-" + id}, nil
}
