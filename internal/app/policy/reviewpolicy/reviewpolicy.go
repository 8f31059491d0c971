// Package reviewpolicy provides authorization policies for the membership
// review surfaces.
//
// Authorization rules:
//   - Super admins can review and manage memberships for any institution
//   - Institution admins can review memberships only for their home institution
//   - Other roles (student, instructor) can view only their own memberships
package reviewpolicy

import (
	"net/http"

	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/domain/models"
)

// QueueScope represents the scope of review queues a user can list.
type QueueScope struct {
	// CanList indicates whether the user can list review queues at all.
	CanList bool
	// AllInstitutions indicates whether every institution's queue is visible.
	// If false, InstitutionID is the single institution the user is scoped to.
	AllInstitutions bool
	// InstitutionID is the institution the user is restricted to.
	InstitutionID string
}

// CanListQueue determines what scope of pending-membership queues the
// current user can list.
func CanListQueue(r *http.Request) QueueScope {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		return QueueScope{CanList: false}
	}

	switch caller.Role {
	case models.RoleSuperAdmin:
		return QueueScope{CanList: true, AllInstitutions: true}
	case models.RoleInstitutionAdmin:
		if caller.InstitutionID == "" {
			return QueueScope{CanList: false}
		}
		return QueueScope{CanList: true, InstitutionID: caller.InstitutionID}
	default:
		return QueueScope{CanList: false}
	}
}

// CanReview reports whether the current user can decide memberships of the
// given institution.
func CanReview(r *http.Request, institutionID string) bool {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		return false
	}
	return caller.AdministersInstitution(institutionID)
}

// CanManageInstitutions reports whether the current user can create,
// deactivate, or rotate invite codes for institutions. Provisioning is a
// platform-level concern, so only super admins qualify.
func CanManageInstitutions(r *http.Request) bool {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		return false
	}
	return caller.IsSuperAdmin()
}

// CanViewAudit reports whether the current user can query the audit trail
// for the given institution. An empty institutionID means a cross-institution
// query, which only super admins may run.
func CanViewAudit(r *http.Request, institutionID string) bool {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		return false
	}
	if institutionID == "" {
		return caller.IsSuperAdmin()
	}
	return caller.AdministersInstitution(institutionID)
}

// CanViewMemberships reports whether the current user can list another
// user's memberships. Users always see their own; admins see users in
// institutions they administer.
func CanViewMemberships(r *http.Request, userID, homeInstitutionID string) bool {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		return false
	}
	if caller.ID == userID {
		return true
	}
	return caller.AdministersInstitution(homeInstitutionID)
}
