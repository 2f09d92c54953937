package services

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// NormEmail lowercases and validates an address. Empty input is allowed.
func NormEmail(s string) (string, bool) {
	e := strings.TrimSpace(strings.ToLower(s))
	if e == "" {
		return "", true
	}
	_, err := mail.ParseAddress(e)
	return e, err == nil
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleMailer logs messages instead of delivering them and keeps a copy
// of everything it was asked to send.
type ConsoleMailer struct {
	log        zerolog.Logger
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(log zerolog.Logger, appName string) *ConsoleMailer {
	return &ConsoleMailer{log: log, subjPrefix: "[" + appName + "] "}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	msg.Subject = m.subjPrefix + msg.Subject
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email (console)")

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the messages sent so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
