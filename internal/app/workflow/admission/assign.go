// internal/app/workflow/admission/assign.go
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/domain/models"
)

// Assign is the administrative shortcut that places a user directly into
// an institution in approved state, skipping review.
//
// Re-assigning an already-approved user fails with ErrConflict instead of
// silently re-applying, so an earlier reviewer's stamp is never clobbered.
// A prior pending/rejected/transferred record is superseded, keeping its
// original created_at.
func (s *Service) Assign(ctx context.Context, caller authz.Caller, userID, institutionID string) (models.Membership, error) {
	if !caller.AdministersInstitution(institutionID) {
		return models.Membership{}, ErrForbidden
	}
	if userID == "" || institutionID == "" {
		return models.Membership{}, ErrValidation
	}

	inst, err := s.dir.Institution(ctx, institutionID)
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	if !inst.IsActive {
		return models.Membership{}, ErrInstitutionInactive
	}

	user, err := s.dir.User(ctx, userID)
	if err != nil {
		return models.Membership{}, storeErr(err)
	}

	existing, err := s.dir.Membership(ctx, userID, institutionID)
	switch {
	case err == nil:
		if existing.Status == models.MembershipApproved {
			return models.Membership{}, ErrConflict
		}
	case errors.Is(err, directory.ErrNotFound):
		// first contact between this user and institution
	default:
		return models.Membership{}, storeErr(err)
	}

	now := time.Now().UTC()
	if err := s.dir.ReplaceMembership(ctx, models.Membership{
		UserID:        userID,
		InstitutionID: institutionID,
		Role:          user.Role,
		Status:        models.MembershipApproved,
		IsExternal:    user.IsExternal,
		JoinMethod:    models.JoinAdminAdded,
		ReviewedBy:    caller.ID,
		ReviewedAt:    &now,
	}); err != nil {
		return models.Membership{}, storeErr(err)
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipAssigned,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: institutionID,
		Resource:      userID + "/" + institutionID,
	})

	m, err := s.dir.Membership(ctx, userID, institutionID)
	if err != nil {
		return models.Membership{}, storeErr(err)
	}
	return m, nil
}
