package authz

// Permission identifies one capability as "<resource>.<action>". The set is
// closed: a key that is not declared here is denied for every role.
type Permission string

// Product catalog.
const (
	PermProductsView   Permission = "products.view"
	PermProductsCreate Permission = "products.create"
	PermProductsEdit   Permission = "products.edit"
	PermProductsDelete Permission = "products.delete"

	PermCategoriesView Permission = "categories.view"
	PermCategoriesEdit Permission = "categories.edit"
)

// Customers.
const (
	PermCustomersView   Permission = "customers.view"
	PermCustomersCreate Permission = "customers.create"
	PermCustomersEdit   Permission = "customers.edit"
	PermCustomersDelete Permission = "customers.delete"
)

// Transactions.
const (
	PermTransactionsView   Permission = "transactions.view"
	PermTransactionsCreate Permission = "transactions.create"
	PermTransactionsVoid   Permission = "transactions.void"
)

// User administration.
const (
	PermUsersView   Permission = "users.view"
	PermUsersCreate Permission = "users.create"
	PermUsersEdit   Permission = "users.edit"
	PermUsersDelete Permission = "users.delete"
)

// Dashboards and reporting.
const (
	PermDashboardView  Permission = "dashboard.view"
	PermDashboardStats Permission = "dashboard.stats"
	PermReportsView    Permission = "reports.view"
)

// registry maps each permission to the roles allowed to use it. The table is
// data, not policy code: adding a capability only adds an entry here. It must
// be kept in sync with the authorization the backend enforces; the console
// never validates that synchronization.
var registry = map[Permission][]Role{
	PermProductsView:   {RoleCashier, RoleManager, RoleAdmin},
	PermProductsCreate: {RoleManager, RoleAdmin},
	PermProductsEdit:   {RoleManager, RoleAdmin},
	PermProductsDelete: {RoleAdmin, RoleManager},

	PermCategoriesView: {RoleCashier, RoleManager, RoleAdmin},
	PermCategoriesEdit: {RoleManager, RoleAdmin},

	PermCustomersView:   {RoleCashier, RoleManager, RoleAdmin},
	PermCustomersCreate: {RoleCashier, RoleManager, RoleAdmin},
	PermCustomersEdit:   {RoleManager, RoleAdmin},
	PermCustomersDelete: {RoleAdmin},

	PermTransactionsView:   {RoleCashier, RoleManager, RoleAdmin},
	PermTransactionsCreate: {RoleCashier, RoleManager, RoleAdmin},
	PermTransactionsVoid:   {RoleManager, RoleAdmin},

	PermUsersView:   {RoleAdmin},
	PermUsersCreate: {RoleAdmin},
	PermUsersEdit:   {RoleAdmin},
	PermUsersDelete: {RoleAdmin},

	PermDashboardView:  {RoleCashier, RoleManager, RoleAdmin},
	PermDashboardStats: {RoleManager, RoleAdmin},
	PermReportsView:    {RoleManager, RoleAdmin},
}

// IsValidPermission reports whether the key exists in the registry.
func IsValidPermission(p Permission) bool {
	_, ok := registry[p]
	return ok
}

// RolesFor returns the roles allowed the permission, or nil for an unknown
// key.
func RolesFor(p Permission) []Role {
	roles, ok := registry[p]
	if !ok {
		return nil
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// AllPermissions returns every registered permission key.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, len(registry))
	for p := range registry {
		perms = append(perms, p)
	}
	return perms
}
