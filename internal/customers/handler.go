package customers

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

// Handler serves the customer pages.
type Handler struct {
	logger    *slog.Logger
	service   backend.CustomerService
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *guard.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service backend.CustomerService, templates *view.Engine, csrf *shared.CSRFManager, g *guard.Guard) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(guard.Check{Permission: authz.PermCustomersView}))
		r.Get("/", h.listCustomers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(guard.Check{Permission: authz.PermCustomersDelete}))
		r.Post("/{id}/delete", h.deleteCustomer)
	})
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	customers, err := h.service.ListCustomers(r.Context(), sess.Token)
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusOK)
		return
	}
	h.render(w, r, map[string]any{"Customers": customers}, http.StatusOK)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteCustomer(r.Context(), sess.Token, id); err != nil {
		h.logger.Error("delete customer failed", slog.String("id", id), slog.Any("error", err))
		shared.SetFlash(w, shared.FlashMessage{Kind: "error", Message: shared.UserSafeMessage(err)})
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return
	}
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Customer deleted"})
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	rc := h.guard.RenderContext(r.Context())
	viewData := view.TemplateData{
		Title:         "Customers",
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
	if err := h.templates.Render(w, "pages/customers.html", viewData); err != nil {
		h.logger.Error("render customers", slog.Any("error", err))
	}
}
