package users

import "time"

// Role is the closed set of portal roles. Anything else parses to
// RoleUnknown and is rejected at the door rather than re-checked ad hoc.
type Role string

const (
	RoleStudent        Role = "student"
	RoleTeacher        Role = "teacher"
	RoleInstituteAdmin Role = "institute-admin"
	RoleSuperAdmin     Role = "super-admin"
	RoleUnknown        Role = "unknown"
)

// ParseRole maps a raw string to a Role, defaulting to RoleUnknown.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleInstituteAdmin, RoleSuperAdmin:
		return Role(s)
	}
	return RoleUnknown
}

// User is a portal profile. Role-specific fields are empty for roles they
// don't apply to (RollNo for students, Subject/Qualification for teachers).
type User struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	InstituteID   string    `json:"instituteId,omitempty"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	RollNo        string    `json:"rollNo,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Qualification string    `json:"qualification,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`

	PasswordHash string `json:"-"`
}

// Institute is a tenant: the isolation boundary for sessions and visibility.
type Institute struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminUID  string    `json:"adminUid"`
	CreatedAt time.Time `json:"createdAt"`
}
