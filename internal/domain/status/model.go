package status

// Severity styles a status message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// State is the status message lifecycle.
type State string

const (
	StateHidden         State = "hidden"
	StateVisibleSuccess State = "visible-success"
	StateVisibleError   State = "visible-error"
)

// Message is the single transient notice shown on the page.
// Seq increases every time a new message is shown; a hide request
// carrying an older Seq must not hide a newer message.
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
	Visible  bool     `json:"visible"`
	Seq      uint64   `json:"seq"`
}

// State derives the lifecycle state from the message fields.
func (m Message) State() State {
	if !m.Visible {
		return StateHidden
	}
	if m.Severity == SeverityError {
		return StateVisibleError
	}
	return StateVisibleSuccess
}

// Class returns the CSS class list for the message element.
func (m Message) Class() string {
	if !m.Visible {
		if m.Severity == "" {
			return "hidden"
		}
		return string(m.Severity) + " hidden"
	}
	return string(m.Severity)
}

// Show returns the message that replaces m when a new result arrives.
// POST: Visible is true and Seq is strictly greater than m.Seq
func (m Message) Show(text string, sev Severity) Message {
	return Message{Text: text, Severity: sev, Visible: true, Seq: m.Seq + 1}
}

// Hide returns m hidden if seq still identifies the current message.
// A stale seq leaves m unchanged.
func (m Message) Hide(seq uint64) Message {
	if seq != m.Seq {
		return m
	}
	m.Visible = false
	return m
}
