package email

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"strings"
)

// CategorySignupConfirmation tags mail sent after a successful sign-up.
const CategorySignupConfirmation = "signup_confirmation"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Email}},</p>
<p>You are signed up for <strong>{{.Activity}}</strong>.</p>
{{if .Schedule}}<p>Schedule: {{.Schedule}}</p>{{end}}
<p>If this was a mistake, reply to this message and we will remove you.</p>`))

// Confirmation describes the mail sent after a successful sign-up.
type Confirmation struct {
	Email    string
	Activity string
	Schedule string
}

// Request renders the confirmation addressed to the participant.
// POST: HTML is escaped; From is left to the sender's default;
// the idempotency key is the same for every request for one (activity, email) pair
func (c Confirmation) Request() (SendRequest, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return SendRequest{}, err
	}
	return SendRequest{
		To:      c.Email,
		Subject: "Signed up for " + c.Activity,
		HTML:    buf.String(),
		Tags: map[string]string{
			TagCategory: CategorySignupConfirmation,
			TagActivity: TagValue(c.Activity),
		},
		IdempotencyKey: c.idempotencyKey(),
	}, nil
}

// idempotencyKey hashes the pair so the address never leaves in a header.
// Email case is ignored; activity names are exact.
func (c Confirmation) idempotencyKey() string {
	sum := sha256.Sum256([]byte(c.Activity + "\x00" + strings.ToLower(c.Email)))
	return CategorySignupConfirmation + "/" + hex.EncodeToString(sum[:16])
}

// TagValue folds s into the tag alphabet: lower-case ASCII letters, digits, '_' and '-'.
// Runs of other characters become one '_'. An empty result becomes "none".
func TagValue(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	v := b.String()
	if len(v) > 256 {
		v = v[:256]
	}
	return v
}
