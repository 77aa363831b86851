package domain

import "fmt"

// Role is an admin privilege tier. The zero value is not a valid role.
type Role string

const (
	RoleEditor     Role = "EDITOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleRank = map[Role]int{
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", Invalid("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank is 0 for unknown roles.
func (r Role) Rank() int {
	return roleRank[r]
}

func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

func (r Role) String() string {
	return string(r)
}
