// Package auth implements the login and logout flows. The console never
// checks passwords itself: credentials go to the backend, which answers with
// a signed session token the console persists in the token cookie.
package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillway/tillway/internal/backend"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
	"github.com/tillway/tillway/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	backend   backend.AuthService
	store     *session.Store
	guard     *guard.Guard
	templates *view.Engine
	csrf      *shared.CSRFManager
	cookie    session.CookieConfig
	landing   string
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, svc backend.AuthService, store *session.Store, g *guard.Guard, templates *view.Engine, csrf *shared.CSRFManager, cookie session.CookieConfig, landing string) *Handler {
	if landing == "" {
		landing = "/"
	}
	return &Handler{
		logger:    logger,
		backend:   svc,
		store:     store,
		guard:     g,
		templates: templates,
		csrf:      csrf,
		cookie:    cookie,
		landing:   landing,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	// Already signed in: the login page is pointless, go to the landing.
	if h.guard.RenderContext(r.Context()).Authenticated() {
		http.Redirect(w, r, h.landing, http.StatusSeeOther)
		return
	}
	h.render(w, r, loginPageData{Form: loginForm{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(errs) == 0 {
		token, err := h.backend.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			h.logger.Warn("login rejected", slog.String("email", form.Email), slog.Any("error", err))
			errs["general"] = shared.UserSafeMessage(err)
		} else {
			state := h.store.Refresh(r.Context(), token)
			if state.Identity == nil {
				// The backend issued a token this console cannot decode
				// or that failed validation; treat as a failed login.
				h.logger.Error("issued token failed validation", slog.Any("error", state.Err))
				errs["general"] = shared.UserSafeMessage(shared.ErrInvalidCredentials)
			} else {
				h.cookie.Write(w, token, state.ExpiresIn)
				shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Welcome back"})
				http.Redirect(w, r, h.landing, http.StatusSeeOther)
				return
			}
		}
	}

	h.render(w, r, loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := shared.SessionFromContext(r.Context()).Token
	if token == "" {
		token = h.cookie.Read(r)
	}
	if token != "" {
		if err := h.store.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout revoke failed", slog.Any("error", err))
		}
	}
	h.cookie.Clear(w)
	shared.SetFlash(w, shared.FlashMessage{Kind: "success", Message: "Signed out"})
	http.Redirect(w, r, "/welcome", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   h.csrf.EnsureToken(w, r),
		Flash:       shared.PopFlash(w, r),
		CurrentPath: r.URL.Path,
		Guard:       h.guard.RenderContext(r.Context()),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}
