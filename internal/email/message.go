// Package email defines the message, request and result types shared by the
// dispatcher, its transports and the host-facing surfaces.
package email

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/samber/lo"
)

// Mail types accepted in a send request.
const (
	MailTypePlain = "plain"
	MailTypeHTML  = "html"
)

// Defaults applied when the caller leaves a field out.
const (
	DefaultSubject  = "Email notification"
	DefaultMailType = MailTypeHTML
	DefaultEncoding = "utf-8"
)

// Message is a composed email before it is rendered to MIME.
type Message struct {
	SenderName string
	From       string
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	Body       string
	MailType   string
	Encoding   string
}

// Envelope returns the addresses the transport delivers to: To, then Cc,
// then Bcc. Order is kept and duplicates are not removed.
func (m *Message) Envelope() []string {
	return lo.Flatten([][]string{m.To, m.Cc, m.Bcc})
}

// ParseList splits a comma-separated address list, trimming each element
// and dropping empty ones. Order is preserved.
func ParseList(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

// JoinList renders an address list the way it appears in a header.
func JoinList(addrs []string) string {
	return strings.Join(addrs, ", ")
}

// AddrSpecs reduces each entry to its bare address so "Bob <bob@x.com>"
// becomes "bob@x.com", as SMTP RCPT TO requires. Order and duplicates are
// kept.
func AddrSpecs(addrs []string) ([]string, error) {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parsed, err := mail.ParseAddress(a)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", a, err)
		}
		out = append(out, parsed.Address)
	}
	return out, nil
}
