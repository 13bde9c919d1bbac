// Package transport defines the interface for mail delivery backends.
package transport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shineum/email-sender-lite/internal/account"
)

// Transport opens sessions to a mail delivery backend.
type Transport interface {
	// Dial opens a session to the account's server. The caller must Close
	// the returned session.
	Dial(ctx context.Context, acct account.Account) (Session, error)

	// Name returns the human-readable name of this transport.
	Name() string
}

// Session is one authenticated connection to a delivery backend. It is used
// by a single invocation and then released.
type Session interface {
	Auth(ctx context.Context, user, password string) error
	Send(ctx context.Context, from string, rcpts []string, raw []byte) error
	Close() error
}

// Operations reported in Error.Op.
const (
	OpDial = "dial"
	OpAuth = "auth"
	OpSend = "send"
)

// Error is returned by transports for every failure, tagged with the step
// that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch e.Op {
	case OpDial:
		return fmt.Sprintf("connect: %v", e.Err)
	case OpAuth:
		return fmt.Sprintf("authentication failed: %v", e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with op. A nil err stays nil and an existing *Error is kept.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Op: op, Err: err}
}

// Registry maps transport names to implementations.
type Registry map[string]Transport

// NewRegistry indexes transports by Name.
func NewRegistry(transports ...Transport) Registry {
	r := make(Registry, len(transports))
	for _, t := range transports {
		r[t.Name()] = t
	}
	return r
}

// For returns the transport configured for acct.
func (r Registry) For(acct account.Account) (Transport, error) {
	name := acct.TransportName()
	t, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("transport %q is not available (have %s)", name, strings.Join(r.names(), ", "))
	}
	return t, nil
}

func (r Registry) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
