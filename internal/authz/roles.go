package authz

// Role is a named user category with a fixed privilege rank.
type Role string

// The closed set of roles issued by the backend.
const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// roleLevels ranks each role; a higher number means more privilege.
var roleLevels = map[Role]int{
	RoleCashier: 1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// Roles returns all valid roles ordered by ascending privilege.
func Roles() []Role {
	return []Role{RoleCashier, RoleManager, RoleAdmin}
}

// IsValidRole reports whether the role belongs to the closed role set.
func IsValidRole(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// HierarchyLevel returns the privilege rank of a role. Unknown roles rank 0
// and therefore fail every hierarchy check.
func HierarchyLevel(role Role) int {
	return roleLevels[role]
}

// RoleSatisfiesHierarchy reports whether actual ranks at least as high as
// required. It is reflexive for every valid role.
func RoleSatisfiesHierarchy(actual, required Role) bool {
	actualLevel := HierarchyLevel(actual)
	if actualLevel == 0 {
		return false
	}
	return actualLevel >= HierarchyLevel(required)
}
