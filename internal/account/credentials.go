package account

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FromCredentials builds an Account from a single credential map as handed
// over by the host for a connection test. The port may be a number or a
// numeric string. tls_ca_file is not read from the map: a caller-supplied
// path would be opened on this host.
func FromCredentials(creds map[string]any) (Account, error) {
	port, err := parsePort(creds["port"])
	if err != nil {
		return Account{}, err
	}

	a := Account{
		Name:       stringValue(creds["name"]),
		Server:     stringValue(creds["server"]),
		Port:       port,
		User:       stringValue(creds["user"]),
		Password:   stringValue(creds["password"]),
		SenderName: stringValue(creds["sender_name"]),
		From:       stringValue(creds["from"]),
		Transport:  stringValue(creds["transport"]),
	}
	if v, ok := creds["tls_insecure_skip_verify"].(bool); ok {
		a.TLSInsecureSkipVerify = v
	}
	return a, nil
}

const maxPort = 65535

func parsePort(v any) (int, error) {
	var n int
	switch p := v.(type) {
	case int:
		n = p
	case int64:
		if p < 0 || p > maxPort {
			return 0, fmt.Errorf("invalid port %d: must be between 1 and %d", p, maxPort)
		}
		n = int(p)
	case float64:
		if p != math.Trunc(p) || p < 0 || p > maxPort {
			return 0, fmt.Errorf("invalid port %v: must be a whole number between 1 and %d", p, maxPort)
		}
		n = int(p)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("invalid port %q: %w", p, err)
		}
		n = i
	case nil:
		return 0, fmt.Errorf("port is required")
	default:
		return 0, fmt.Errorf("invalid port type %T", v)
	}

	if n < 1 || n > maxPort {
		return 0, fmt.Errorf("invalid port %d: must be between 1 and %d", n, maxPort)
	}
	return n, nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
