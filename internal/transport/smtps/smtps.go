// Package smtps implements a Transport that submits mail over implicit-TLS
// SMTP (SMTPS, usually port 465).
package smtps

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/shineum/email-sender-lite/internal/account"
	smtptls "github.com/shineum/email-sender-lite/internal/tls"
	"github.com/shineum/email-sender-lite/internal/transport"
)

// DefaultTimeout bounds the connect and every SMTP command.
const DefaultTimeout = 10 * time.Second

// Transport dials SMTP servers over TLS.
type Transport struct {
	timeout time.Duration
}

// New creates a Transport. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transport{timeout: timeout}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return account.TransportSMTPS
}

// Dial opens a TLS connection to the account's server. The SMTP greeting is
// read lazily by the first command.
func (t *Transport) Dial(ctx context.Context, acct account.Account) (transport.Session, error) {
	tlsConfig, err := smtptls.ClientConfig(acct.Server, acct.TLSCAFile, acct.TLSInsecureSkipVerify)
	if err != nil {
		return nil, transport.Wrap(transport.OpDial, err)
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: t.timeout},
		Config:    tlsConfig,
	}
	conn, err := dialer.DialContext(ctx, "tcp", acct.Addr())
	if err != nil {
		return nil, transport.Wrap(transport.OpDial, err)
	}

	client := smtp.NewClient(conn)
	client.CommandTimeout = t.timeout
	client.SubmissionTimeout = t.timeout

	return &session{client: client}, nil
}

type session struct {
	client *smtp.Client
}

// Auth logs in with PLAIN, or LOGIN when the server only offers that.
func (s *session) Auth(_ context.Context, user, password string) error {
	var mech sasl.Client
	if !s.client.SupportsAuth(sasl.Plain) && s.client.SupportsAuth(sasl.Login) {
		mech = sasl.NewLoginClient(user, password)
	} else {
		mech = sasl.NewPlainClient("", user, password)
	}
	return transport.Wrap(transport.OpAuth, s.client.Auth(mech))
}

func (s *session) Send(_ context.Context, from string, rcpts []string, raw []byte) error {
	return transport.Wrap(transport.OpSend, s.client.SendMail(from, rcpts, bytes.NewReader(raw)))
}

// Close ends the SMTP session with QUIT and drops the connection if the
// server does not answer.
func (s *session) Close() error {
	if err := s.client.Quit(); err != nil {
		return s.client.Close()
	}
	return nil
}
