package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// ControlTokenHeader is the alternative to an Authorization bearer token.
const ControlTokenHeader = "X-Control-Token"

// ControlAuth guards the endpoints that change session state.
// With an empty token every request is authorized.
type ControlAuth struct {
	token string
}

// NewControlAuth returns a guard for token.
func NewControlAuth(token string) *ControlAuth {
	return &ControlAuth{token: token}
}

// Enabled reports whether a token is required.
func (a *ControlAuth) Enabled() bool { return a != nil && a.token != "" }

// Authorized reports whether r carries the control token.
func (a *ControlAuth) Authorized(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	got := requestToken(r)
	return got != "" && tokenEqual(got, a.token)
}

// Middleware rejects unauthorized requests with 401.
func (a *ControlAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorized(r) {
			RecordConnectionRejected("token")
			w.Header().Set("WWW-Authenticate", `Bearer realm="arena"`)
			writeError(w, "control token required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthStatus is returned by GET /api/auth.
type AuthStatus struct {
	Required      bool `json:"required"`
	Authenticated bool `json:"authenticated"`
}

// HandleAuthStatus reports whether the caller may use control endpoints.
func (a *ControlAuth) HandleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, AuthStatus{
		Required:      a.Enabled(),
		Authenticated: a.Authorized(r),
	})
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(r.Header.Get(ControlTokenHeader))
}

// tokenEqual compares digests so neither length nor content leaks through timing.
func tokenEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
