// Package guard implements the two access-enforcement surfaces of the
// console: the fragment guard, which decides whether a gated piece of a page
// is rendered at all, and the route guard, which redirects the browser away
// from pages the session may not see.
//
// Denial is never an error. Every failure path resolves to a fallback, a
// loading placeholder, or a redirect; nothing from this package propagates
// into the rendering tree.
package guard

import (
	"log/slog"
	"time"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/observability"
	"github.com/tillway/tillway/internal/ready"
	"github.com/tillway/tillway/internal/session"
)

// Check describes the access requirements for one surface. Zero-value fields
// are not evaluated; the requested checks run in a fixed order and all must
// pass: authentication, exact role, role hierarchy, single permission,
// permission set.
type Check struct {
	// Role requires an exact role match, no hierarchy applied.
	Role authz.Role
	// MinRole requires the session role to rank at least this high.
	MinRole authz.Role
	// Permission requires one capability.
	Permission authz.Permission
	// Permissions requires a set of capabilities; RequireAll selects
	// all-of semantics over the default any-of.
	Permissions []authz.Permission
	RequireAll  bool
}

// Options configures the route guard's navigation behaviour.
type Options struct {
	// LoginPath receives unauthenticated sessions.
	LoginPath string
	// LandingPath receives authenticated sessions that fail a role or
	// permission check. Never the login page: the user holds valid
	// credentials, just not enough privilege.
	LandingPath string
	// Debounce is how long the route guard waits before re-checking and
	// redirecting, to ride out transient unauthenticated states during a
	// page refresh.
	Debounce time.Duration
}

// Guard evaluates checks against the readiness gate and session store.
type Guard struct {
	logger  *slog.Logger
	gate    *ready.Gate
	store   *session.Store
	metrics *observability.Metrics
	opts    Options
}

// New constructs a Guard. metrics may be nil.
func New(logger *slog.Logger, gate *ready.Gate, store *session.Store, metrics *observability.Metrics, opts Options) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/auth/login"
	}
	if opts.LandingPath == "" {
		opts.LandingPath = "/"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	return &Guard{logger: logger, gate: gate, store: store, metrics: metrics, opts: opts}
}

// Evaluate runs the requested checks against one session state. It assumes
// the gate is open and the state is not loading; callers handle those stages
// first.
func Evaluate(state session.State, check Check) bool {
	eval := state.Evaluator()
	if !eval.IsAuthenticated() {
		return false
	}
	if check.Role != "" && !eval.HasRole(check.Role) {
		return false
	}
	if check.MinRole != "" && !eval.HasRoleLevel(check.MinRole) {
		return false
	}
	if check.Permission != "" && !eval.HasPermission(check.Permission) {
		return false
	}
	if len(check.Permissions) > 0 {
		if check.RequireAll {
			if !eval.HasAllPermissions(check.Permissions...) {
				return false
			}
		} else if !eval.HasAnyPermission(check.Permissions...) {
			return false
		}
	}
	return true
}
