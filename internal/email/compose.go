package email

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrUnsupportedMailType is returned for a mail type other than plain or html.
var ErrUnsupportedMailType = errors.New("unsupported mail_type")

// ContentType maps a mail type to its MIME content type.
func ContentType(mailType string) (mail.ContentType, error) {
	switch strings.ToLower(mailType) {
	case MailTypePlain:
		return mail.TypeTextPlain, nil
	case MailTypeHTML:
		return mail.TypeTextHTML, nil
	default:
		return "", fmt.Errorf("%w %q: must be one of %s, %s",
			ErrUnsupportedMailType, mailType, MailTypePlain, MailTypeHTML)
	}
}

// Compose renders m as a single-part MIME message. Subject and body are
// transcoded to m.Encoding. Bcc recipients are never written as a header;
// they only appear in the envelope.
func Compose(m *Message) ([]byte, error) {
	ct, err := ContentType(m.MailType)
	if err != nil {
		return nil, err
	}

	enc, err := htmlindex.Get(m.Encoding)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", m.Encoding, err)
	}
	subject, err := enc.NewEncoder().String(m.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subject as %s: %w", m.Encoding, err)
	}
	body, err := enc.NewEncoder().String(m.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body as %s: %w", m.Encoding, err)
	}

	msg := mail.NewMsg(mail.WithCharset(mail.Charset(m.Encoding)))

	if m.SenderName != "" {
		err = msg.FromFormat(m.SenderName, m.From)
	} else {
		err = msg.From(m.From)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("invalid to_emails: %w", err)
	}
	if len(m.Cc) > 0 {
		if err := msg.Cc(m.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc_emails: %w", err)
		}
	}

	msg.Subject(subject)
	msg.SetBodyString(ct, body)
	msg.SetDate()
	msg.SetMessageID()

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}
	return buf.Bytes(), nil
}
