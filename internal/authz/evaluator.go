package authz

// Evaluator answers permission and role queries for one session snapshot.
// Every query returns false, never an error, when the session is absent or
// still loading; callers distinguish "loading" from "denied" through
// IsLoading.
type Evaluator struct {
	identity *Identity
	loading  bool
}

// NewEvaluator builds an Evaluator over the given identity snapshot. A nil
// identity means no session.
func NewEvaluator(identity *Identity, loading bool) Evaluator {
	return Evaluator{identity: identity, loading: loading}
}

// IsAuthenticated reports whether a resolved identity is present.
func (e Evaluator) IsAuthenticated() bool {
	return !e.loading && e.identity != nil
}

// IsLoading reports whether the session is still being resolved.
func (e Evaluator) IsLoading() bool {
	return e.loading
}

// Identity returns the session identity, or nil.
func (e Evaluator) Identity() *Identity {
	if e.loading {
		return nil
	}
	return e.identity
}

// HasPermission reports whether the current role is allowed the permission.
// Unknown keys fail closed.
func (e Evaluator) HasPermission(p Permission) bool {
	if !e.IsAuthenticated() {
		return false
	}
	for _, role := range registry[p] {
		if role == e.identity.Role {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one permission is granted.
func (e Evaluator) HasAnyPermission(perms ...Permission) bool {
	for _, p := range perms {
		if e.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every permission is granted.
func (e Evaluator) HasAllPermissions(perms ...Permission) bool {
	if !e.IsAuthenticated() {
		return false
	}
	for _, p := range perms {
		if !e.HasPermission(p) {
			return false
		}
	}
	return true
}

// HasRole reports an exact role match, with no hierarchy applied.
func (e Evaluator) HasRole(role Role) bool {
	return e.IsAuthenticated() && e.identity.Role == role
}

// HasRoleLevel reports whether the current role ranks at least as high as
// required in the hierarchy.
func (e Evaluator) HasRoleLevel(required Role) bool {
	return e.IsAuthenticated() && RoleSatisfiesHierarchy(e.identity.Role, required)
}
