package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tillway/tillway/internal/auth"
	"github.com/tillway/tillway/internal/customers"
	"github.com/tillway/tillway/internal/dashboard"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/observability"
	"github.com/tillway/tillway/internal/platform/httpx"
	"github.com/tillway/tillway/internal/products"
	"github.com/tillway/tillway/internal/ready"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/transactions"
	"github.com/tillway/tillway/internal/users"
	"github.com/tillway/tillway/internal/view"
	"github.com/tillway/tillway/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Templates *view.Engine
	Store     *session.Store
	Cookie    session.CookieConfig
	CSRF      *shared.CSRFManager
	Guard     *guard.Guard
	Gate      *ready.Gate

	AuthHandler         *auth.Handler
	DashboardHandler    *dashboard.Handler
	ProductsHandler     *products.Handler
	CustomersHandler    *customers.Handler
	TransactionsHandler *transactions.Handler
	UsersHandler        *users.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Store:   params.Store,
		Cookie:  params.Cookie,
		CSRF:    params.CSRF,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Gate != nil && !params.Gate.Ready() {
			httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "console is still warming up")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Landing page for unauthenticated visitors.
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		rc := params.Guard.RenderContext(r.Context())
		if rc.Authenticated() {
			http.Redirect(w, r, params.Config.LandingPath, http.StatusSeeOther)
			return
		}
		data := view.TemplateData{
			Title:       "Welcome",
			CSRFToken:   params.CSRF.EnsureToken(w, r),
			Flash:       shared.PopFlash(w, r),
			CurrentPath: r.URL.Path,
			Guard:       rc,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.DashboardHandler.MountRoutes(r)
	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/customers", params.CustomersHandler.MountRoutes)
	r.Route("/transactions", params.TransactionsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static assets are fingerprint-free; a short browser cache is
		// good enough.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
