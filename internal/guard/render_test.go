package guard

import (
	"testing"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/session"
)

func TestVisibleHidesWhileGateClosed(t *testing.T) {
	// Even a session that would pass the check stays hidden until the
	// gate opens.
	rc := NewRenderContext(false, stateFor(authz.RoleAdmin))
	if rc.Visible(Check{Permission: authz.PermProductsView}) {
		t.Fatal("fragment visible before gate opened")
	}
	if !rc.Loading() {
		t.Fatal("closed gate not reported as loading")
	}
	if rc.Identity() != nil {
		t.Fatal("closed gate exposed identity")
	}
}

func TestVisibleHidesWhileSessionLoading(t *testing.T) {
	rc := NewRenderContext(true, session.State{Loading: true})
	if rc.Visible(Check{}) {
		t.Fatal("fragment visible while session loading")
	}
	if rc.Authenticated() {
		t.Fatal("loading session reported authenticated")
	}
}

func TestVisibleEvaluatesCheck(t *testing.T) {
	manager := NewRenderContext(true, stateFor(authz.RoleManager))

	if !manager.Visible(Check{Permission: authz.PermProductsEdit}) {
		t.Fatal("manager fragment hidden despite grant")
	}
	if manager.Visible(Check{Permission: authz.PermUsersDelete}) {
		t.Fatal("manager fragment visible despite denial")
	}
	if !manager.Authenticated() {
		t.Fatal("resolved session not authenticated")
	}
	if manager.Identity() == nil {
		t.Fatal("resolved session identity missing")
	}
}

func TestStringKeyedQueries(t *testing.T) {
	admin := NewRenderContext(true, stateFor(authz.RoleAdmin))

	if !admin.Can("users.delete") {
		t.Fatal("Can denied users.delete for admin")
	}
	if admin.Can("users.obliterate") {
		t.Fatal("unknown string key did not fail closed")
	}
	if !admin.CanAny("users.obliterate", "users.view") {
		t.Fatal("CanAny denied despite one valid grant")
	}
	if admin.CanAll("users.view", "users.obliterate") {
		t.Fatal("CanAll granted despite unknown key")
	}
	if !admin.HasRole("admin") {
		t.Fatal("HasRole denied exact match")
	}
	if admin.HasRole("manager") {
		t.Fatal("HasRole applied hierarchy")
	}
	if !admin.MinRole("cashier") {
		t.Fatal("MinRole denied admin at cashier level")
	}
}
