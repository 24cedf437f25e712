package shared

import (
	"context"

	"github.com/tillway/tillway/internal/session"
)

// SessionView is the per-request view of the resolved session: the raw token
// as carried by the cookie, plus the state the Store resolved it to.
type SessionView struct {
	Token string
	State session.State
	// ExpiryWarning is set when the token is close enough to expiry that
	// the user should be warned. Informational only; nothing refreshes
	// the token automatically.
	ExpiryWarning bool
}

type sessionContextKey struct{}

// ContextWithSession stores the session view in context.
func ContextWithSession(ctx context.Context, view SessionView) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, view)
}

// SessionFromContext extracts the session view from context. The zero view
// (no token, unresolved state) is returned when middleware has not run.
func SessionFromContext(ctx context.Context) SessionView {
	view, _ := ctx.Value(sessionContextKey{}).(SessionView)
	return view
}
