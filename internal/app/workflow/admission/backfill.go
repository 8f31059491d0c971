// internal/app/workflow/admission/backfill.go
package admission

import (
	"context"
	"strconv"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.uber.org/zap"
)

// Backfill scans every user homed at the institution and synthesizes an
// approved membership for each that lacks one, reflecting the user's
// current role. Strictly additive: existing membership records are never
// modified, so running it twice creates nothing the second time.
func (s *Service) Backfill(ctx context.Context, caller authz.Caller, institutionID string) (int, error) {
	if !caller.AdministersInstitution(institutionID) {
		return 0, ErrForbidden
	}

	if _, err := s.dir.Institution(ctx, institutionID); err != nil {
		return 0, storeErr(err)
	}

	users, err := s.dir.UsersByHomeInstitution(ctx, institutionID)
	if err != nil {
		return 0, storeErr(err)
	}

	created := 0
	for _, u := range users {
		ok, err := s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        u.ID,
			InstitutionID: institutionID,
			Role:          u.Role,
			Status:        models.MembershipApproved,
			IsExternal:    u.IsExternal,
			JoinMethod:    models.JoinAdminAdded,
		})
		if err != nil {
			// Keep going; the scan is re-runnable and partial progress
			// is progress.
			s.log.Warn("backfill insert failed",
				zap.String("user_id", u.ID), zap.String("institution_id", institutionID), zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipBackfill,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: institutionID,
		Resource:      institutionID,
		Details:       map[string]string{"created": strconv.Itoa(created)},
	})

	return created, nil
}
