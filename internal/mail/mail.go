// Package mail delivers outbound customer messages.
package mail

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return errors.New("mail: sender required")
	}
	if len(m.To) == 0 {
		return errors.New("mail: at least one recipient required")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("mail: empty recipient")
		}
	}
	return nil
}

// Sender delivers a message synchronously and reports the outcome.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes messages to a logger instead of delivering them. It is the
// default when no SMTP host is configured.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender returns a LogSender; a nil logger discards output.
func NewLogSender(logger *log.Logger) *LogSender {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		names = append(names, a.Name)
	}
	s.logger.Printf("mail: from=%s to=%s subject=%q attachments=%v\n%s",
		m.From, strings.Join(m.To, ","), m.Subject, names, m.Body)
	return nil
}
