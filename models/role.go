package models

// Role is the closed set of principals the API knows about. Authorization
// decisions switch on this type instead of comparing raw claim strings.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleStaff:
		return Role(s), true
	}
	return "", false
}

func (r Role) String() string { return string(r) }
