package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Canonical security event types. Values are stable wire identifiers; new
// types may be added but existing ones never change meaning.
const (
	EventSignIn    = "SIGN_IN"
	EventSignOut   = "SIGN_OUT"
	EventSignUp    = "SIGN_UP"
	EventChangePwd = "CHANGE_PWD"
	EventResetPwd  = "RESET_PWD"
)

// Canonical outcome status codes recorded with events. The core emits only
// these; message localization belongs to the embedding boundary.
const (
	StatusOK                       = "OK"
	StatusAccountNotExists         = "ACCOUNT_NOT_EXISTS"
	StatusAccountDisabled          = "ACCOUNT_DISABLED"
	StatusInvalidPassword          = "INVALID_PASSWORD"
	StatusPasswordAttemptsExceeded = "PASSWORD_ATTEMPTS_EXCEEDED"
	StatusInvalidCode              = "INVALID_CODE"
	StatusCodeIncorrect            = "CODE_INCORRECT"
	StatusCodeAttemptsExceeded     = "CODE_ATTEMPTS_EXCEEDED"
	StatusCodeExpired              = "CODE_EXPIRED"
)

// Event is the canonical audit record: one security-relevant outcome for one
// account. Entries are immutable once written.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Status    string            `json:"status"`
	AccountID string            `json:"account_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	OS        string            `json:"os,omitempty"`
	Device    string            `json:"device,omitempty"`
	Browser   string            `json:"browser,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
