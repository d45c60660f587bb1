package email

import "context"

// Tag names attached to every outgoing message.
const (
	TagCategory = "category"
	TagActivity = "activity"
)

// SendRequest is one message to one participant.
// Tags are provider metadata; names and values use only ASCII letters, digits, '_' and '-'.
type SendRequest struct {
	To      string
	From    string // empty selects the sender's default
	Subject string
	HTML    string
	Tags    map[string]string

	// IdempotencyKey lets the provider drop a repeat of the same message.
	IdempotencyKey string
}

// SendResult identifies an accepted message.
type SendResult struct {
	MessageID string
}

// Sender delivers participant mail.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
