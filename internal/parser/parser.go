// Package parser reads an RFC 5322 message back into an email.Message.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/shineum/email-sender-lite/internal/email"
)

// decoder handles encoded-word headers in any charset htmlindex knows.
var decoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

// Parse parses a raw message. Headers and the first text part are decoded
// to UTF-8; Bcc is read if present even though composed messages never
// carry it.
func Parse(raw []byte) (*email.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	result := &email.Message{
		To:  parseAddressList(msg.Header.Get("To")),
		Cc:  parseAddressList(msg.Header.Get("Cc")),
		Bcc: parseAddressList(msg.Header.Get("Bcc")),
	}

	addrParser := mail.AddressParser{WordDecoder: decoder}
	if from, err := addrParser.Parse(msg.Header.Get("From")); err == nil {
		result.SenderName = from.Name
		result.From = from.Address
	} else {
		result.From = msg.Header.Get("From")
	}
	result.Subject = decodeHeader(msg.Header.Get("Subject"))

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		result.Body = string(body)
		result.MailType = email.MailTypePlain
		return result, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return result, nil
	}

	if err := setBody(result, mediaType, params["charset"],
		msg.Header.Get("Content-Transfer-Encoding"), msg.Body); err != nil {
		return nil, err
	}
	return result, nil
}

// parseMultipart keeps the first text part it finds, descending into nested
// multiparts.
func parseMultipart(body io.Reader, boundary string, result *email.Message) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			if params["boundary"] == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := parseMultipart(part, params["boundary"], result); err != nil {
				slog.Warn("failed to parse nested multipart", "error", err)
			}
			continue
		}

		if result.MailType != "" || !strings.HasPrefix(mediaType, "text/") {
			continue
		}
		if strings.HasPrefix(part.Header.Get("Content-Disposition"), "attachment") {
			continue
		}

		// multipart.Part already removes quoted-printable and drops the header.
		if err := setBody(result, mediaType, params["charset"],
			part.Header.Get("Content-Transfer-Encoding"), part); err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
		}
	}
}

// setBody decodes the transfer encoding and charset of a text body.
func setBody(result *email.Message, mediaType, charset, transferEncoding string, r io.Reader) error {
	content, err := readContent(r, transferEncoding)
	if err != nil {
		return err
	}

	if charset == "" {
		charset = email.DefaultEncoding
	}
	if enc, err := htmlindex.Get(charset); err == nil {
		if decoded, err := enc.NewDecoder().Bytes(content); err == nil {
			content = decoded
		}
	} else {
		slog.Warn("unknown charset, leaving body undecoded", "charset", charset)
	}

	result.Body = string(content)
	result.Encoding = charset
	switch mediaType {
	case "text/html":
		result.MailType = email.MailTypeHTML
	default:
		result.MailType = email.MailTypePlain
	}
	return nil
}

// readContent reads a body, removing base64 or quoted-printable transfer
// encoding.
func readContent(r io.Reader, transferEncoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 content: %w", err)
			}
		}
		return decoded, nil
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return content, nil
}

func decodeHeader(v string) string {
	decoded, err := decoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// parseAddressList splits an address header into bare addresses.
func parseAddressList(raw string) []string {
	if raw == "" {
		return nil
	}

	parser := mail.AddressParser{WordDecoder: decoder}
	addresses, err := parser.ParseList(raw)
	if err != nil {
		// Fall back to simple comma split if RFC 5322 parsing fails
		return email.ParseList(raw)
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, addr.Address)
	}
	return result
}
