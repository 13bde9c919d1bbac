// Package account models the configured SMTP sender accounts and selects
// which one an invocation sends from.
package account

import (
	"context"
	"log/slog"
	"net"
	"strconv"
)

// Transport names understood by the dispatcher.
const (
	TransportSMTPS  = "smtps"
	TransportSES    = "ses"
	TransportStdout = "stdout"
)

// Account is one configured sender credential set. Accounts are owned by the
// credential store and never modified here.
type Account struct {
	Name       string `yaml:"name" json:"name"`
	IsDefault  bool   `yaml:"is_default" json:"is_default"`
	Server     string `yaml:"server" json:"server" validate:"required"`
	Port       int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	User       string `yaml:"user" json:"user" validate:"required"`
	Password   string `yaml:"password" json:"password"`
	SenderName string `yaml:"sender_name" json:"sender_name"`

	// From overrides the sender address. Required for ses, whose user is
	// an access key id.
	From string `yaml:"from" json:"from" validate:"required_if=Transport ses"`

	// Transport selects the delivery backend. Empty means smtps.
	Transport string `yaml:"transport" json:"transport" validate:"omitempty,oneof=smtps ses stdout"`

	TLSCAFile             string `yaml:"tls_ca_file" json:"tls_ca_file"`
	TLSInsecureSkipVerify bool   `yaml:"tls_insecure_skip_verify" json:"tls_insecure_skip_verify"`
}

// TransportName returns the configured transport, defaulting to smtps.
func (a Account) TransportName() string {
	if a.Transport == "" {
		return TransportSMTPS
	}
	return a.Transport
}

// FromAddress returns the address messages are sent from: From if set,
// otherwise the login user.
func (a Account) FromAddress() string {
	if a.From != "" {
		return a.From
	}
	return a.User
}

// Addr returns the server address in host:port form.
func (a Account) Addr() string {
	return net.JoinHostPort(a.Server, strconv.Itoa(a.Port))
}

// LogValue implements slog.LogValuer so that the password never reaches a log.
func (a Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", a.Name),
		slog.String("server", a.Server),
		slog.Int("port", a.Port),
		slog.String("user", a.User),
		slog.String("from", a.FromAddress()),
		slog.String("transport", a.TransportName()),
	)
}

// Store supplies the configured accounts. Credentials are expected to be
// decrypted already.
type Store interface {
	Accounts(ctx context.Context) ([]Account, error)
}

// StaticStore is a Store backed by an in-memory list, typically loaded from
// the configuration file.
type StaticStore []Account

// Accounts returns a copy of the stored list.
func (s StaticStore) Accounts(_ context.Context) ([]Account, error) {
	out := make([]Account, len(s))
	copy(out, s)
	return out, nil
}
