package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
)

const (
	// CSRFCookieName carries the per-browser CSRF binding id.
	CSRFCookieName = "tillway_csrf"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
)

// CSRFManager issues and verifies CSRF tokens bound to a browser cookie.
// Tokens are HMACs of a random per-browser id, so they survive login and
// logout without any server-side state.
type CSRFManager struct {
	secret []byte
	secure bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string, secure bool) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), secure: secure}
}

// EnsureToken retrieves or creates the CSRF binding cookie and returns the
// token to embed in forms.
func (m *CSRFManager) EnsureToken(w http.ResponseWriter, r *http.Request) string {
	id := m.bindingID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     CSRFCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return m.tokenFor(id)
}

// VerifyToken compares the submitted token against the cookie binding.
func (m *CSRFManager) VerifyToken(r *http.Request, token string) error {
	if token == "" {
		return ErrCSRFTokenMissing
	}
	id := m.bindingID(r)
	if id == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(m.tokenFor(id)), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) bindingID(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (m *CSRFManager) tokenFor(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
