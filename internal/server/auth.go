package server

import (
	"crypto/subtle"
	"net/http"
)

// Authenticator checks HTTP Basic credentials against the configured pair.
type Authenticator struct {
	username string
	password string
}

// NewAuthenticator creates an Authenticator with the given credentials.
// If either is empty, authentication is disabled.
func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
	}
}

// Enabled returns true if authentication credentials are configured.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.username != "" && a.password != ""
}

// Verify reports whether user and pass match the configured credentials.
func (a *Authenticator) Verify(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.password)) == 1
	return userOK && passOK
}

// Middleware rejects requests without valid Basic credentials. It passes
// everything through when authentication is disabled.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !a.Verify(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="email-sender"`)
			writeText(w, http.StatusUnauthorized, "Error: authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
