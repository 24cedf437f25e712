package authz

// Identity is the read-only projection of a decoded session token.
type Identity struct {
	ID    string
	Email string
	Role  Role
}
