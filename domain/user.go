package domain

import "time"

// Role classifies a user's access level. Admins hold a superset of
// doctor-level access.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleDoctor Role = "DOCTOR"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor
}

// User is the resolved identity record: the directory profile joined onto
// the authentication principal, including role and active status.
type User struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        Role      `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsDoctor reports whether the user holds the DOCTOR role exactly.
func (u *User) IsDoctor() bool {
	return u != nil && u.Role == RoleDoctor
}

// CanActAsDoctor reports whether the user satisfies a doctor-level
// requirement. Admins always do; this is the only place the superset
// rule lives.
func (u *User) CanActAsDoctor() bool {
	return u != nil && (u.Role == RoleDoctor || u.Role == RoleAdmin)
}
