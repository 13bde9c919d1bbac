// Package dispatch turns a send request into one delivery through the
// transport configured for the chosen account.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/email"
	"github.com/shineum/email-sender-lite/internal/transport"
)

// ErrEmptyRecipients is reported when to_emails holds no address.
var ErrEmptyRecipients = errors.New("recipient list (to_emails) must not be empty")

// SendFailedPrefix starts the error message of every failed delivery.
const SendFailedPrefix = "email send failed: "

// Handler sends one message per call. It holds no per-call state and is
// safe for concurrent use.
type Handler struct {
	transports transport.Registry
	logger     *slog.Logger
}

// New creates a Handler that picks transports from the registry.
func New(transports transport.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		transports: transports,
		logger:     logger,
	}
}

// Send validates req, composes the message and delivers it from acct.
// Every failure is reported in the returned Result; nothing is retried.
func (h *Handler) Send(ctx context.Context, acct account.Account, req email.Request) email.Result {
	to := email.ParseList(req.To)
	if len(to) == 0 {
		return email.Failure(ErrEmptyRecipients.Error())
	}
	if _, err := email.ContentType(req.MailType); err != nil {
		return email.Failure(err.Error())
	}

	msg := &email.Message{
		SenderName: acct.SenderName,
		From:       acct.FromAddress(),
		To:         to,
		Cc:         email.ParseList(req.Cc),
		Bcc:        email.ParseList(req.Bcc),
		Subject:    req.Subject,
		Body:       req.Body,
		MailType:   req.MailType,
		Encoding:   req.Encoding,
	}

	raw, err := email.Compose(msg)
	if err != nil {
		return h.failed(acct, err)
	}

	rcpts, err := email.AddrSpecs(msg.Envelope())
	if err != nil {
		return h.failed(acct, err)
	}
	if err := h.deliver(ctx, acct, msg.From, rcpts, raw); err != nil {
		return h.failed(acct, err)
	}

	h.logger.Info("email sent",
		"account", acct,
		"recipients", len(rcpts),
		"size", len(raw),
	)
	return email.Success()
}

// TestConnection connects and authenticates with acct without sending.
func (h *Handler) TestConnection(ctx context.Context, acct account.Account) email.ConnectionResult {
	err := h.withSession(ctx, acct, func(transport.Session) error { return nil })
	if err != nil {
		h.logger.Warn("connection test failed", "account", acct, "error", err)
		return email.ConnectionResult{Status: email.StatusError, Message: err.Error()}
	}
	return email.ConnectionResult{Status: email.StatusSuccess}
}

func (h *Handler) deliver(ctx context.Context, acct account.Account, from string, rcpts []string, raw []byte) error {
	return h.withSession(ctx, acct, func(sess transport.Session) error {
		return sess.Send(ctx, from, rcpts, raw)
	})
}

// withSession dials and authenticates, runs fn and always closes the
// session it opened.
func (h *Handler) withSession(ctx context.Context, acct account.Account, fn func(transport.Session) error) (err error) {
	t, err := h.transports.For(acct)
	if err != nil {
		return err
	}

	sess, err := t.Dial(ctx, acct)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport %s panicked: %v", t.Name(), r)
		}
		if cerr := sess.Close(); cerr != nil {
			h.logger.Debug("failed to close session", "transport", t.Name(), "error", cerr)
		}
	}()

	if err := sess.Auth(ctx, acct.User, acct.Password); err != nil {
		return err
	}
	return fn(sess)
}

func (h *Handler) failed(acct account.Account, err error) email.Result {
	h.logger.Warn("email send failed", "account", acct, "error", err)
	return email.Failure(SendFailedPrefix + err.Error())
}
