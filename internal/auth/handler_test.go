package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/platform/tokenstore"
	"github.com/tillway/tillway/internal/ready"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/view"
	_ "github.com/tillway/tillway/testing"
)

type stubRevocations struct {
	revoked map[string]bool
}

func (s *stubRevocations) Revoke(ctx context.Context, fp string, ttl time.Duration) error {
	s.revoked[fp] = true
	return nil
}

func (s *stubRevocations) IsRevoked(ctx context.Context, fp string) (bool, error) {
	return s.revoked[fp], nil
}

func (s *stubRevocations) Announce(ctx context.Context, fp string) error { return nil }

func (s *stubRevocations) Watch(ctx context.Context) (<-chan tokenstore.Signal, error) {
	ch := make(chan tokenstore.Signal)
	close(ch)
	return ch, nil
}

func (s *stubRevocations) Close() error { return nil }

type stubAuthService struct {
	token string
	err   error
}

func (s stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return s.token, s.err
}

type fixture struct {
	handler *Handler
	router  chi.Router
	store   *session.Store
	revs    *stubRevocations
}

func newFixture(t *testing.T, svc stubAuthService) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	revs := &stubRevocations{revoked: map[string]bool{}}
	store := session.NewStore(logger, session.NewValidator(logger, 0), revs)
	gate := ready.NewGate()
	gate.Open()
	g := guard.New(logger, gate, store, nil, guard.Options{Debounce: time.Millisecond})

	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	h := NewHandler(logger, svc, store, g, engine,
		shared.NewCSRFManager("test-secret", false),
		session.CookieConfig{Name: "tillway_token"}, "/")
	r := chi.NewRouter()
	h.MountRoutes(r)
	return fixture{handler: h, router: r, store: store, revs: revs}
}

func issuedToken(t *testing.T) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u-1",
		"email": "till@tillway.example",
		"role":  "cashier",
		"exp":   time.Now().Add(8 * time.Hour).Unix(),
	}).SignedString([]byte("backend"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func postForm(t *testing.T, router chi.Router, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestShowLoginRendersForm(t *testing.T) {
	fx := newFixture(t, stubAuthService{})
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="email"`) || !strings.Contains(body, `name="csrf_token"`) {
		t.Fatal("login form markup incomplete")
	}
}

func TestLoginValidationErrors(t *testing.T) {
	fx := newFixture(t, stubAuthService{})
	rec := postForm(t, fx.router, "/login", url.Values{
		"email":    {"not-an-email"},
		"password": {"short"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginSuccessSetsCookieAndRedirects(t *testing.T) {
	token := issuedToken(t)
	fx := newFixture(t, stubAuthService{token: token})

	rec := postForm(t, fx.router, "/login", url.Values{
		"email":    {"till@tillway.example"},
		"password": {"longenough"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("redirect to %q", loc)
	}

	var tokenCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tillway_token" {
			tokenCookie = c
		}
	}
	if tokenCookie == nil || tokenCookie.Value != token {
		t.Fatal("token cookie not written")
	}
	if !tokenCookie.HttpOnly {
		t.Fatal("token cookie not HttpOnly")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	fx := newFixture(t, stubAuthService{err: shared.ErrInvalidCredentials})

	rec := postForm(t, fx.router, "/login", url.Values{
		"email":    {"till@tillway.example"},
		"password": {"wrongbutlong"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email or password is not valid.") {
		t.Fatal("rejection message missing from page")
	}
}

func TestLoginUndecodableTokenTreatedAsFailure(t *testing.T) {
	fx := newFixture(t, stubAuthService{token: "opaque-blob"})

	rec := postForm(t, fx.router, "/login", url.Values{
		"email":    {"till@tillway.example"},
		"password": {"longenough"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tillway_token" {
			t.Fatal("undecodable token persisted to cookie")
		}
	}
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	token := issuedToken(t)
	fx := newFixture(t, stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "tillway_token", Value: token})
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/welcome" {
		t.Fatalf("redirect to %q, want /welcome", loc)
	}
	if !fx.revs.revoked[session.Fingerprint(token)] {
		t.Fatal("logout did not revoke fingerprint")
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tillway_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("token cookie not cleared")
	}
}
