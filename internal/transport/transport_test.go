package transport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shineum/email-sender-lite/internal/account"
)

type namedTransport string

func (n namedTransport) Name() string { return string(n) }

func (n namedTransport) Dial(context.Context, account.Account) (Session, error) {
	return nil, errors.New("not implemented")
}

func TestRegistry_For(t *testing.T) {
	t.Parallel()

	r := NewRegistry(namedTransport("smtps"), namedTransport("stdout"))

	got, err := r.For(account.Account{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "smtps" {
		t.Errorf("default transport: got %q, want %q", got.Name(), "smtps")
	}

	got, err = r.For(account.Account{Transport: "stdout"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "stdout" {
		t.Errorf("stdout transport: got %q, want %q", got.Name(), "stdout")
	}

	_, err = r.For(account.Account{Transport: "ses"})
	if err == nil {
		t.Fatal("expected error for unregistered transport")
	}
	if !strings.Contains(err.Error(), "smtps, stdout") {
		t.Errorf("error should list available transports: %v", err)
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap(OpSend, nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}

	base := errors.New("535 5.7.8 bad credentials")
	err := Wrap(OpAuth, base)

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.Op != OpAuth {
		t.Errorf("Op: got %q, want %q", terr.Op, OpAuth)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to the original")
	}
	if got := err.Error(); got != "authentication failed: 535 5.7.8 bad credentials" {
		t.Errorf("Error(): got %q", got)
	}

	if again := Wrap(OpSend, err); again != err {
		t.Error("Wrap should keep an existing *Error")
	}
}
