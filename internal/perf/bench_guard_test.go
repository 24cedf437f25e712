package perf

import (
	"testing"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/guard"
	"github.com/tillway/tillway/internal/session"
)

func benchState(role authz.Role) session.State {
	return session.State{Identity: &authz.Identity{ID: "u-1", Email: "u@tillway.example", Role: role}}
}

func BenchmarkEvaluatePermission(b *testing.B) {
	state := benchState(authz.RoleManager)
	check := guard.Check{Permission: authz.PermProductsEdit}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !guard.Evaluate(state, check) {
			b.Fatal("unexpected denial")
		}
	}
}

func BenchmarkEvaluatePermissionSet(b *testing.B) {
	state := benchState(authz.RoleAdmin)
	check := guard.Check{
		Permissions: []authz.Permission{
			authz.PermProductsView,
			authz.PermTransactionsVoid,
			authz.PermUsersView,
		},
		RequireAll: true,
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if !guard.Evaluate(state, check) {
			b.Fatal("unexpected denial")
		}
	}
}

func BenchmarkRenderContextVisible(b *testing.B) {
	rc := guard.NewRenderContext(true, benchState(authz.RoleCashier))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc.Can("products.view")
	}
}

func BenchmarkFingerprint(b *testing.B) {
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJpZCI6InUtMSJ9.signature"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		session.Fingerprint(token)
	}
}
