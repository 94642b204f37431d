package models

// Role defines the account role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// DefaultRole is assigned when an account is created without a role
const DefaultRole = RoleStudent

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleTeacher:
		return true
	}
	return false
}

// RoleOrDefault returns r, or DefaultRole when r is empty
func RoleOrDefault(r Role) Role {
	if r == "" {
		return DefaultRole
	}
	return r
}
