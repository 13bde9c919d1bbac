// Package tool is the host-facing entry point: it takes the untyped
// parameter map of one invocation, resolves the sender account and hands a
// typed request to the dispatcher.
package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/email"
)

// Parameter keys accepted by Invoke.
const (
	ParamSenderAccount = "sender_account"
	ParamTo            = "to_emails"
	ParamCc            = "cc_emails"
	ParamBcc           = "bcc_emails"
	ParamSubject       = "subject"
	ParamBody          = "body"
	ParamMailType      = "mail_type"
	ParamEncoding      = "encoding"
)

// Sender delivers a request from a resolved account.
type Sender interface {
	Send(ctx context.Context, acct account.Account, req email.Request) email.Result
	TestConnection(ctx context.Context, acct account.Account) email.ConnectionResult
}

// Output is what an invocation returns to the host: either a plain text
// diagnostic or a structured result, never both.
type Output struct {
	Text   string
	Result *email.Result
}

// IsText reports whether the output is a text diagnostic.
func (o Output) IsText() bool {
	return o.Result == nil
}

// Tool binds a credential store to a sender.
type Tool struct {
	store  account.Store
	sender Sender
	logger *slog.Logger
}

// New creates a Tool.
func New(store account.Store, sender Sender, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{store: store, sender: sender, logger: logger}
}

// Invoke runs one send. Account problems are reported as text before any
// request field is looked at; everything after that is a structured result.
func (t *Tool) Invoke(ctx context.Context, params map[string]any) Output {
	accounts, err := t.store.Accounts(ctx)
	if err != nil {
		t.logger.Error("failed to load sender accounts", "error", err)
		return Output{Text: fmt.Sprintf("Error: failed to load sender accounts: %v", err)}
	}

	requested := stringParam(params, ParamSenderAccount, "")
	acct, err := account.Resolve(accounts, requested)
	if err != nil {
		t.logger.Warn("sender account resolution failed",
			"requested", requested,
			"error", err,
		)
		return Output{Text: DescribeResolveError(err)}
	}

	req := DecodeRequest(params)
	t.logger.Debug("dispatching email",
		"account", acct,
		"mail_type", req.MailType,
		"encoding", req.Encoding,
	)

	res := t.sender.Send(ctx, acct, req)
	return Output{Result: &res}
}

// TestConnection checks a single credential record supplied by the host.
func (t *Tool) TestConnection(ctx context.Context, creds map[string]any) email.ConnectionResult {
	acct, err := account.FromCredentials(creds)
	if err != nil {
		return email.ConnectionResult{Status: email.StatusError, Message: err.Error()}
	}
	return t.sender.TestConnection(ctx, acct)
}

// DecodeRequest builds a typed request from the host parameters. Missing
// or null keys take the defaults of email.NewRequest; a key that is present
// keeps its value even when empty.
func DecodeRequest(params map[string]any) email.Request {
	def := email.NewRequest()
	return email.Request{
		SenderAccount: stringParam(params, ParamSenderAccount, def.SenderAccount),
		To:            stringParam(params, ParamTo, def.To),
		Cc:            stringParam(params, ParamCc, def.Cc),
		Bcc:           stringParam(params, ParamBcc, def.Bcc),
		Subject:       stringParam(params, ParamSubject, def.Subject),
		Body:          stringParam(params, ParamBody, def.Body),
		MailType:      stringParam(params, ParamMailType, def.MailType),
		Encoding:      stringParam(params, ParamEncoding, def.Encoding),
	}
}

func stringParam(params map[string]any, key, fallback string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DescribeResolveError renders an account.Resolve error as the plain text
// diagnostic shown to the host.
func DescribeResolveError(err error) string {
	var nf *account.NotFoundError
	switch {
	case errors.Is(err, account.ErrNoAccountsConfigured):
		return "Error: no sender accounts are configured. Add at least one entry under smtp_accounts."
	case errors.As(err, &nf):
		return fmt.Sprintf("Error: no sender account named %q is configured.", nf.Name)
	default:
		return "Error: " + err.Error()
	}
}
