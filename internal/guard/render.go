package guard

import (
	"context"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/session"
	"github.com/tillway/tillway/internal/shared"
)

// RenderContext is the fragment guard: a per-request snapshot handed to
// templates so gated controls can be hidden. Three stages short-circuit to
// "hide": gate closed, session loading, then the requested checks. A hidden
// fragment is the whole UX contract; there is no error banner state.
type RenderContext struct {
	gateReady bool
	state     session.State
}

// RenderContext builds the fragment guard snapshot for a request.
func (g *Guard) RenderContext(ctx context.Context) RenderContext {
	return RenderContext{
		gateReady: g.gate.Ready(),
		state:     shared.SessionFromContext(ctx).State,
	}
}

// NewRenderContext builds a snapshot directly from parts, for tests and for
// callers outside the middleware chain.
func NewRenderContext(gateReady bool, state session.State) RenderContext {
	return RenderContext{gateReady: gateReady, state: state}
}

// Visible reports whether a fragment guarded by check may render.
func (rc RenderContext) Visible(check Check) bool {
	if !rc.gateReady {
		return false
	}
	if rc.state.Loading {
		return false
	}
	return Evaluate(rc.state, check)
}

// Authenticated reports whether the session resolved to an identity. False
// while the gate is closed or the session is loading.
func (rc RenderContext) Authenticated() bool {
	return rc.gateReady && !rc.state.Loading && rc.state.Identity != nil
}

// Loading reports whether the access decision is still unknown.
func (rc RenderContext) Loading() bool {
	return !rc.gateReady || rc.state.Loading
}

// Identity returns the resolved identity, or nil.
func (rc RenderContext) Identity() *authz.Identity {
	if rc.Loading() {
		return nil
	}
	return rc.state.Identity
}

// The string-keyed queries below are the template boundary: keys arrive from
// markup rather than code, so they are validated against the registry at
// runtime. A typo denies rather than crashes.

// Can reports whether the session holds one permission key.
func (rc RenderContext) Can(key string) bool {
	return rc.Visible(Check{Permission: authz.Permission(key)})
}

// CanAny reports whether the session holds at least one of the keys.
func (rc RenderContext) CanAny(keys ...string) bool {
	return rc.Visible(Check{Permissions: toPermissions(keys)})
}

// CanAll reports whether the session holds every key.
func (rc RenderContext) CanAll(keys ...string) bool {
	return rc.Visible(Check{Permissions: toPermissions(keys), RequireAll: true})
}

// HasRole reports an exact role match.
func (rc RenderContext) HasRole(role string) bool {
	return rc.Visible(Check{Role: authz.Role(role)})
}

// MinRole reports a role-hierarchy match.
func (rc RenderContext) MinRole(role string) bool {
	return rc.Visible(Check{MinRole: authz.Role(role)})
}

func toPermissions(keys []string) []authz.Permission {
	perms := make([]authz.Permission, len(keys))
	for i, key := range keys {
		perms[i] = authz.Permission(key)
	}
	return perms
}
