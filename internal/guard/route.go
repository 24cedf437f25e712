package guard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tillway/tillway/internal/shared"
)

// defaultPlaceholder is served while an access decision is still unknown.
// It refreshes itself so a legitimately authenticated user lands on the real
// page as soon as the session settles.
var defaultPlaceholder = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!doctype html><html><head><meta http-equiv="refresh" content="1"><title>Loading</title></head><body><p>Loading&hellip;</p></body></html>`))
})

// Protect guards a whole route with the default loading placeholder.
func (g *Guard) Protect(check Check) func(http.Handler) http.Handler {
	return g.ProtectWith(check, nil)
}

// ProtectWith guards a whole route. On denial it navigates: unauthenticated
// sessions go to the login path, under-privileged ones to the landing path.
// While the gate is closed, the session is loading, or the debounced recheck
// has not resolved, the placeholder is served instead; protected content is
// never written before the decision is "allowed".
func (g *Guard) ProtectWith(check Check, placeholder http.Handler) func(http.Handler) http.Handler {
	if placeholder == nil {
		placeholder = defaultPlaceholder
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.gate.Ready() {
				g.record("route", "placeholder")
				placeholder.ServeHTTP(w, r)
				return
			}

			view := shared.SessionFromContext(r.Context())
			if view.State.Loading {
				g.record("route", "placeholder")
				placeholder.ServeHTTP(w, r)
				return
			}

			if Evaluate(view.State, check) {
				g.record("route", "allow")
				next.ServeHTTP(w, r)
				return
			}

			// A page refresh can momentarily present a stale cache entry
			// while a cross-instance signal is in flight. Re-check once
			// against fresh storage after a short delay before deciding
			// to redirect.
			timer := time.NewTimer(g.opts.Debounce)
			select {
			case <-r.Context().Done():
				// Client went away; the stale redirect must not fire.
				timer.Stop()
				return
			case <-timer.C:
			}

			state := g.store.Refresh(r.Context(), view.Token)
			if Evaluate(state, check) {
				g.record("route", "allow")
				next.ServeHTTP(w, r)
				return
			}
			if state.Loading {
				g.record("route", "placeholder")
				placeholder.ServeHTTP(w, r)
				return
			}

			target := g.opts.LandingPath
			if state.Identity == nil {
				target = g.opts.LoginPath
			}
			if state.Err != nil {
				g.logger.Debug("route guard denied session",
					slog.String("path", r.URL.Path),
					slog.Any("reason", state.Err))
			}
			g.record("route", "redirect")
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// RequireAuthenticated guards a route that only needs a signed-in session.
func (g *Guard) RequireAuthenticated() func(http.Handler) http.Handler {
	return g.Protect(Check{})
}

func (g *Guard) record(surface, outcome string) {
	if g.metrics != nil {
		g.metrics.GuardDecision(surface, outcome)
	}
}
