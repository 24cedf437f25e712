package transactions

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

// Handler serves the transaction pages.
type Handler struct {
	logger    *slog.Logger
	service   backend.TransactionService
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     *guard.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service backend.TransactionService, templates *view.Engine, csrf *shared.CSRFManager, g *guard.Guard) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers transaction routes. Voiding requires the manager
// hierarchy on top of the void permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(guard.Check{Permission: authz.PermTransactionsView}))
		r.Get("/", h.listTransactions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect(guard.Check{
			Permission: authz.PermTransactionsVoid,
			MinRole:    authz.RoleManager,
		}))
		r.Post("/{id}/void", h.voidTransaction)
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	txs, err := h.service.ListTransactions(r.Context(), sess.Token)
	if err != nil {
		h.logger.Error("list transactions failed", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusOK)
		return
	}
	h.render(w, r, map[string]any{"Transactions": txs}, http.StatusOK)
}

func (h *Handler) voidTransaction(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.service.VoidTransaction(r.Context(), sess.Token, id); err != nil {
		h.logger.Error("void transaction failed", slog.String("id", id), slog.Any("error", err))
		shared.SetFlash(w, shared.FlashMessage{Kind: "error", Message: shared.UserSafeMessage(err)})
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
		return
	}
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Transaction voided"})
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	rc := h.guard.RenderContext(r.Context())
	viewData := view.TemplateData{
		Title:         "Transactions",
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
	if err := h.templates.Render(w, "pages/transactions.html", viewData); err != nil {
		h.logger.Error("render transactions", slog.Any("error", err))
	}
}
