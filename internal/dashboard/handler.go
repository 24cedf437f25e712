package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/backend"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/view"
)

// Handler serves the dashboard page.
type Handler struct {
	logger    *slog.Logger
	service   backend.DashboardService
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *guard.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service backend.DashboardService, templates *view.Engine, csrf *shared.CSRFManager, g *guard.Guard) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(guard.Check{Permission: authz.PermDashboardView}))
		r.Get("/", h.showDashboard)
	})
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), sess.Token)
	if err != nil {
		h.logger.Error("dashboard summary failed", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusOK)
		return
	}
	h.render(w, r, map[string]any{"Summary": summary}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	rc := h.guard.RenderContext(r.Context())
	viewData := view.TemplateData{
		Title:         "Dashboard",
		CSRFToken:     h.csrf.EnsureToken(w, r),
		Flash:         shared.PopFlash(w, r),
		CurrentPath:   r.URL.Path,
		Identity:      rc.Identity(),
		Guard:         rc,
		ExpiryWarning: sess.ExpiryWarning,
		Data:          data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/home.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
