// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/domain/models"
)

// Caller is the resolved acting principal for one request. It is produced
// in exactly one place (ResolveCaller) from the context user, which the
// auth middleware has already refreshed from the live user record, so
// fields here never reflect stale session claims. Every workflow operation
// takes a Caller rather than re-resolving roles ad hoc.
type Caller struct {
	ID            string
	Email         string
	Role          string
	InstitutionID string
	IsExternal    bool
}

// ResolveCaller extracts the Caller from the request context. ok=false
// means the request is unauthenticated; callers must fail closed.
func ResolveCaller(r *http.Request) (Caller, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID == "" {
		return Caller{}, false
	}
	return Caller{
		ID:            u.ID,
		Email:         u.Email,
		Role:          strings.ToLower(u.Role),
		InstitutionID: u.InstitutionID,
		IsExternal:    u.IsExternal,
	}, true
}

// IsSuperAdmin reports whether the caller holds the super_admin role.
func (c Caller) IsSuperAdmin() bool {
	return c.Role == models.RoleSuperAdmin
}

// IsInstitutionAdmin reports whether the caller administers an institution.
func (c Caller) IsInstitutionAdmin() bool {
	return c.Role == models.RoleInstitutionAdmin
}

// AdministersInstitution reports whether the caller may act on the given
// institution: super admins may everywhere, institution admins only where
// their own home institution matches.
func (c Caller) AdministersInstitution(institutionID string) bool {
	if c.IsSuperAdmin() {
		return true
	}
	return c.IsInstitutionAdmin() && c.InstitutionID != "" && c.InstitutionID == institutionID
}
