package stdout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/transport"
)

func send(t *testing.T, p *Transport, from string, rcpts []string, raw string) error {
	t.Helper()

	ctx := context.Background()
	sess, err := p.Dial(ctx, account.Account{Transport: account.TransportStdout})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	if err := sess.Auth(ctx, "", ""); err != nil {
		t.Fatalf("auth: %v", err)
	}
	return sess.Send(ctx, from, rcpts, []byte(raw))
}

func TestSend_BasicEmail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	raw := strings.Join([]string{
		"From: Reports <sender@example.com>",
		"To: alice@example.com, bob@example.com",
		"Subject: Monthly Report",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Please find the report below.",
	}, "\r\n")

	err := send(t, p, "sender@example.com", []string{"alice@example.com", "bob@example.com", "hidden@example.com"}, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Envelope-To: alice@example.com, bob@example.com, hidden@example.com") {
		t.Error("output missing envelope recipients")
	}
	if !strings.Contains(output, "From: Reports <sender@example.com>") {
		t.Error("output missing From header")
	}
	if !strings.Contains(output, "To: alice@example.com, bob@example.com\n") {
		t.Error("output missing To header")
	}
	if !strings.Contains(output, "Subject: Monthly Report") {
		t.Error("output missing Subject header")
	}
	if !strings.Contains(output, "Please find the report below.") {
		t.Error("output missing body text")
	}
	if strings.Contains(output, "Cc:") {
		t.Error("output should not contain Cc line when there is none")
	}
	if !strings.HasPrefix(output, "========================================\n") {
		t.Error("output should start with separator line")
	}
	if !strings.HasSuffix(output, "========================================\n") {
		t.Error("output should end with separator line")
	}
}

func TestSend_WithCc(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	raw := strings.Join([]string{
		"From: sender@example.com",
		"To: alice@example.com",
		"Cc: carol@example.com",
		"Subject: With CC",
		"Content-Type: text/html",
		"",
		"<p>Hello</p>",
	}, "\r\n")

	if err := send(t, p, "sender@example.com", []string{"alice@example.com", "carol@example.com"}, raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Cc: carol@example.com") {
		t.Error("output missing Cc header")
	}
	if !strings.Contains(output, "Body (html, utf-8):") {
		t.Errorf("output missing body description: %s", output)
	}
}

func TestSend_UnparseableMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	err := send(t, p, "sender@example.com", []string{"a@example.com"}, "not a valid email at all\x00\x01\x02")

	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Op != transport.OpSend {
		t.Fatalf("expected send *transport.Error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", buf.String())
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	if got := New().Name(); got != "stdout" {
		t.Errorf("Name(): got %q, want %q", got, "stdout")
	}
}
