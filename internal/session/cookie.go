package session

import (
	"net/http"
	"time"
)

// CookieConfig describes the cookie carrying the backend-issued token. The
// cookie is the single shared credential surface: written by login, removed
// by logout, read on every request.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Read returns the raw token from the request, or "".
func (c CookieConfig) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Write persists the token. ttl of NoExpiry leaves the cookie session-scoped.
func (c CookieConfig) Write(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
}

// Clear removes the token cookie.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
