package model

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrMissingCredentials is returned when the username or password is empty.
var ErrMissingCredentials = errors.New("missing credentials: username and password are required")

// Credentials is the portal username/password pair.
// It is held only in memory for the duration of one run and is never
// persisted or written to reports.
type Credentials struct {
	// Username is the portal login name (usually an e-mail address).
	Username string

	// Password is the portal password.
	Password string
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String returns a representation safe for printing.
func (c Credentials) String() string {
	return "Credentials{Username: " + MaskIdentity(c.Username) + ", Password: ***}"
}

// LogValue implements slog.LogValuer so that credentials passed to a logger
// never reveal the password, even without the secure handler.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", MaskIdentity(c.Username)),
		slog.Bool("password_set", c.Password != ""),
	)
}

// MaskIdentity keeps the first character of a username (and the domain of an
// e-mail address) and masks the rest, e.g. "jane@example.com" becomes
// "j***@example.com".
func MaskIdentity(s string) string {
	if s == "" {
		return ""
	}
	local, domain, hasDomain := strings.Cut(s, "@")
	masked := "***"
	if runes := []rune(local); len(runes) > 0 {
		masked = string(runes[:1]) + masked
	}
	if hasDomain {
		return masked + "@" + domain
	}
	return masked
}
