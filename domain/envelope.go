package domain

import (
	"encoding/json"
	"time"
)

type EnvelopeKind string

const (
	KindMessage EnvelopeKind = "message"
	KindError   EnvelopeKind = "error"
)

// SystemSender is the sender identity of frames produced by the relay itself.
const SystemSender = "System"

const welcomeText = "WebSocket connection established"

// Envelope is the frame pushed to dashboard viewers.
// Kind decides the shape of Data: MessageData or ErrorData.
type Envelope struct {
	Kind EnvelopeKind `json:"type"`
	Data any          `json:"data"`
}

type MessageData struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type ErrorData struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewMessageEnvelope stamps the message with an ISO-8601 UTC timestamp (millisecond precision).
func NewMessageEnvelope(from, text string, at time.Time) Envelope {
	return Envelope{
		Kind: KindMessage,
		Data: MessageData{
			From:      from,
			Text:      text,
			Timestamp: at.UTC().Format(TimestampLayout),
		},
	}
}

func NewErrorEnvelope(message string, cause error) Envelope {
	data := ErrorData{Message: message}
	if cause != nil {
		data.Error = cause.Error()
	}
	return Envelope{Kind: KindError, Data: data}
}

func NewWelcomeEnvelope(at time.Time) Envelope {
	return NewMessageEnvelope(SystemSender, welcomeText, at)
}

// TimestampLayout matches the JavaScript Date.toISOString format the dashboard parses.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
