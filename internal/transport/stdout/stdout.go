// Package stdout implements a Transport that prints messages to standard
// output instead of delivering them. It is meant for dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/email"
	"github.com/shineum/email-sender-lite/internal/parser"
	"github.com/shineum/email-sender-lite/internal/transport"
)

// Transport prints email messages in a human-readable format.
type Transport struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Transport that writes to os.Stdout.
func New() *Transport {
	return &Transport{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Transport that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Transport {
	return &Transport{writer: w}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return account.TransportStdout
}

// Dial always succeeds.
func (t *Transport) Dial(_ context.Context, _ account.Account) (transport.Session, error) {
	return &session{writer: t.writer}, nil
}

type session struct {
	writer io.Writer
}

func (s *session) Auth(context.Context, string, string) error {
	return nil
}

// Send prints the envelope and a decoded summary of the message.
func (s *session) Send(_ context.Context, from string, rcpts []string, raw []byte) error {
	msg, err := parser.Parse(raw)
	if err != nil {
		return transport.Wrap(transport.OpSend, err)
	}

	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("Envelope-From: %s\n", from))
	b.WriteString(fmt.Sprintf("Envelope-To: %s\n", email.JoinList(rcpts)))
	if msg.SenderName != "" {
		b.WriteString(fmt.Sprintf("From: %s <%s>\n", msg.SenderName, msg.From))
	} else {
		b.WriteString(fmt.Sprintf("From: %s\n", msg.From))
	}
	b.WriteString(fmt.Sprintf("To: %s\n", email.JoinList(msg.To)))

	if len(msg.Cc) > 0 {
		b.WriteString(fmt.Sprintf("Cc: %s\n", email.JoinList(msg.Cc)))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Body (%s, %s):\n", msg.MailType, msg.Encoding))
	b.WriteString(strings.TrimRight(msg.Body, "\r\n") + "\n")
	b.WriteString("========================================\n")

	if _, err := fmt.Fprint(s.writer, b.String()); err != nil {
		return transport.Wrap(transport.OpSend, err)
	}
	return nil
}

func (s *session) Close() error {
	return nil
}
