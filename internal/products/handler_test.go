package products

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/backend"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/platform/tokenstore"
	"github.com/tillway/tillway/internal/ready"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/view"
	_ "github.com/tillway/tillway/testing"
)

type stubRevocations struct{}

func (stubRevocations) Revoke(ctx context.Context, fp string, ttl time.Duration) error { return nil }
func (stubRevocations) IsRevoked(ctx context.Context, fp string) (bool, error)         { return false, nil }
func (stubRevocations) Announce(ctx context.Context, fp string) error                  { return nil }
func (stubRevocations) Watch(ctx context.Context) (<-chan tokenstore.Signal, error) {
	ch := make(chan tokenstore.Signal)
	close(ch)
	return ch, nil
}
func (stubRevocations) Close() error { return nil }

type stubProducts struct {
	products []backend.Product
	listErr  error
	deleted  []string
}

func (s *stubProducts) ListProducts(ctx context.Context, token string) ([]backend.Product, error) {
	return s.products, s.listErr
}

func (s *stubProducts) ListCategories(ctx context.Context, token string) ([]backend.Category, error) {
	return nil, nil
}

func (s *stubProducts) DeleteProduct(ctx context.Context, token, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newRouter(t *testing.T, svc *stubProducts) (chi.Router, *session.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(logger, session.NewValidator(logger, 0), stubRevocations{})
	gate := ready.NewGate()
	gate.Open()
	g := guard.New(logger, gate, store, nil, guard.Options{Debounce: time.Millisecond})

	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	h := NewHandler(logger, svc, engine, shared.NewCSRFManager("test-secret", false), g)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, store
}

func tokenFor(t *testing.T, role authz.Role) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u-1",
		"email": "u@tillway.example",
		"role":  string(role),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func request(t *testing.T, router chi.Router, store *session.Store, method, path string, role authz.Role) *httptest.ResponseRecorder {
	t.Helper()
	token := tokenFor(t, role)
	sess := shared.SessionView{Token: token, State: store.Resolve(context.Background(), token)}
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListProductsRendersCatalog(t *testing.T) {
	svc := &stubProducts{products: []backend.Product{
		{ID: "p-1", SKU: "SKU-1", Name: "Espresso", Price: 3.5, Stock: 10},
	}}
	router, store := newRouter(t, svc)

	rec := request(t, router, store, http.MethodGet, "/", authz.RoleCashier)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Espresso") {
		t.Fatal("product row missing")
	}
}

func TestListProductsBackendFailureRendersBanner(t *testing.T) {
	svc := &stubProducts{listErr: shared.ErrBackendUnavailable}
	router, store := newRouter(t, svc)

	rec := request(t, router, store, http.MethodGet, "/", authz.RoleCashier)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "temporarily unavailable") {
		t.Fatal("error banner missing")
	}
}

func TestDeleteRequiresPermission(t *testing.T) {
	svc := &stubProducts{}
	router, store := newRouter(t, svc)

	rec := request(t, router, store, http.MethodPost, "/p-1/delete", authz.RoleCashier)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 redirect", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("redirect to %q, want landing", loc)
	}
	if len(svc.deleted) != 0 {
		t.Fatal("delete reached the backend despite denial")
	}
}

func TestDeleteAllowedForManager(t *testing.T) {
	svc := &stubProducts{}
	router, store := newRouter(t, svc)

	rec := request(t, router, store, http.MethodPost, "/p-1/delete", authz.RoleManager)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/products" {
		t.Fatalf("redirect to %q, want /products", loc)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "p-1" {
		t.Fatalf("deleted = %v", svc.deleted)
	}
}
