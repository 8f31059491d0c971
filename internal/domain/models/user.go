// internal/domain/models/user.go
package models

import "time"

// User roles.
const (
	RoleStudent          = "student"
	RoleInstructor       = "instructor"
	RoleInstitutionAdmin = "institution_admin"
	RoleSuperAdmin       = "super_admin"
)

// User is keyed by the identity provider's principal ID, which makes user
// creation a natural create-if-absent: two concurrent first logins for the
// same principal collide on _id instead of racing to divergent records.
//
// Role and InstitutionID on this record are the source of truth for
// authorization. Session claims are a cache of them and are refreshed by
// the claims projector.
type User struct {
	ID       string `bson:"_id" json:"id"` // principal id
	Email    string `bson:"email" json:"email"`
	FullName string `bson:"full_name,omitempty" json:"full_name,omitempty"`

	// InstitutionID is the user's home institution; empty until a domain
	// match at signup or a first membership approval claims it.
	InstitutionID string `bson:"institution_id,omitempty" json:"institution_id,omitempty"`

	// ActiveInstitutionID is the institution currently in focus, when the
	// user belongs to more than one.
	ActiveInstitutionID string `bson:"active_institution_id,omitempty" json:"active_institution_id,omitempty"`

	Role       string `bson:"role" json:"role"`
	IsExternal bool   `bson:"is_external" json:"is_external"`

	LastLoginAt time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidRole reports whether r is one of the closed set of user roles.
func ValidRole(r string) bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleInstitutionAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
