package domain

// Role determines what a caller may do. Applicants hold RoleUser; reviewers
// hold RoleAdmin. There is no role hierarchy beyond these two.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole normalizes a role string, defaulting unknown values to RoleUser so
// a malformed claim can never escalate privileges.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}
