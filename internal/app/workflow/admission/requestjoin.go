// internal/app/workflow/admission/requestjoin.go
package admission

import (
	"context"
	"errors"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// JoinResult reports the membership governing the pair after RequestJoin,
// and whether this call created (or re-opened) it.
type JoinResult struct {
	Membership models.Membership
	Created    bool
}

// RequestJoin records the caller's wish to join an institution.
//
// If a membership already exists for the pair in a live state (pending or
// approved) the call is a no-op returning the existing record; a decided
// approval is never overwritten. A rejected or transferred membership does
// not block a fresh request; it is re-opened as pending with its review
// stamps cleared (the prior decision survives in the audit trail).
func (s *Service) RequestJoin(ctx context.Context, caller authz.Caller, institutionID, joinMethod, inviteCode string) (JoinResult, error) {
	if caller.ID == "" {
		return JoinResult{}, ErrForbidden
	}
	if joinMethod != models.JoinBrowse && joinMethod != models.JoinInviteCode {
		return JoinResult{}, ErrValidation
	}

	inst, err := s.dir.Institution(ctx, institutionID)
	if err != nil {
		return JoinResult{}, storeErr(err)
	}
	if !inst.IsActive {
		return JoinResult{}, ErrInstitutionInactive
	}
	if caller.IsExternal && !inst.AllowExternalUsers {
		return JoinResult{}, ErrForbidden
	}

	if joinMethod == models.JoinInviteCode {
		if inst.InviteCodeHash == "" {
			return JoinResult{}, ErrInvalidInviteCode
		}
		if bcrypt.CompareHashAndPassword([]byte(inst.InviteCodeHash), []byte(inviteCode)) != nil {
			return JoinResult{}, ErrInvalidInviteCode
		}
	}

	want := models.Membership{
		UserID:        caller.ID,
		InstitutionID: institutionID,
		Role:          caller.Role,
		Status:        models.MembershipPending,
		IsExternal:    caller.IsExternal,
		JoinMethod:    joinMethod,
	}

	existing, err := s.dir.Membership(ctx, caller.ID, institutionID)
	switch {
	case err == nil:
		if !existing.Status.Terminal() {
			return JoinResult{Membership: existing, Created: false}, nil
		}
		// Terminal record: re-open as a fresh pending request.
		if err := s.dir.ReplaceMembership(ctx, want); err != nil {
			return JoinResult{}, storeErr(err)
		}
	case errors.Is(err, directory.ErrNotFound):
		created, cerr := s.dir.CreateMembershipIfAbsent(ctx, want)
		if cerr != nil {
			return JoinResult{}, storeErr(cerr)
		}
		if !created {
			// Raced another request for the same pair; theirs stands.
			m, gerr := s.dir.Membership(ctx, caller.ID, institutionID)
			if gerr != nil {
				return JoinResult{}, storeErr(gerr)
			}
			return JoinResult{Membership: m, Created: false}, nil
		}
	default:
		return JoinResult{}, storeErr(err)
	}

	m, err := s.dir.Membership(ctx, caller.ID, institutionID)
	if err != nil {
		return JoinResult{}, storeErr(err)
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipRequested,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: institutionID,
		Resource:      caller.ID + "/" + institutionID,
		Details:       map[string]string{"join_method": joinMethod},
	})

	return JoinResult{Membership: m, Created: true}, nil
}
