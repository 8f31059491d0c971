// internal/app/workflow/admission/review.go
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/store/directory"
	membershipstore "github.com/lumenlms/admission/internal/app/store/memberships"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/sanitize"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.uber.org/zap"
)

// Review actions.
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionTransfer = "transfer"
)

// ReviewInput identifies the pending membership and the decision.
type ReviewInput struct {
	UserID         string
	InstitutionID  string
	Action         string // approve | reject | transfer
	Note           string
	TransferTarget string // required for transfer
}

// ReviewResult summarizes the decision and its side effects.
type ReviewResult struct {
	Membership models.Membership
	// HomeClaimed is true when this approval set the user's home
	// institution for the first time.
	HomeClaimed bool
	// CascadeCreated is true when approving at a child created the
	// automatic mother-institution membership.
	CascadeCreated bool
	// TransferPending is the new pending membership at the transfer
	// target, when the action was a transfer.
	TransferPending *models.Membership
}

// Review decides a pending membership.
//
// The reviewer must be a super admin, or an institution admin whose own
// home institution matches the membership's. A membership that is no
// longer pending fails with ErrInvalidState rather than silently
// no-opping: surfacing double submissions is an explicit choice. This
// covers transfers too, so an approved membership cannot be moved; the
// admin path for that is a reject followed by an assign at the target.
func (s *Service) Review(ctx context.Context, caller authz.Caller, in ReviewInput) (ReviewResult, error) {
	if !caller.AdministersInstitution(in.InstitutionID) {
		return ReviewResult{}, ErrForbidden
	}
	if in.UserID == "" || in.InstitutionID == "" {
		return ReviewResult{}, ErrValidation
	}

	m, err := s.dir.Membership(ctx, in.UserID, in.InstitutionID)
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	if m.Status != models.MembershipPending {
		return ReviewResult{}, ErrInvalidState
	}

	note := sanitize.Text(in.Note)
	now := time.Now().UTC()

	switch in.Action {
	case ActionApprove:
		return s.approve(ctx, caller, m, note, now)
	case ActionReject:
		return s.reject(ctx, caller, m, note, now)
	case ActionTransfer:
		return s.transfer(ctx, caller, m, note, in.TransferTarget, now)
	default:
		return ReviewResult{}, ErrValidation
	}
}

func (s *Service) approve(ctx context.Context, caller authz.Caller, m models.Membership, note string, now time.Time) (ReviewResult, error) {
	decided, homeClaimed, err := s.dir.ApproveMembership(ctx, m.UserID, m.InstitutionID, membershipstore.Decision{
		Status:     models.MembershipApproved,
		ReviewedBy: caller.ID,
		ReviewNote: note,
		ReviewedAt: now,
	})
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	if !decided {
		// A concurrent review won the compare-and-set; its side effects
		// are the authoritative ones.
		return ReviewResult{}, ErrInvalidState
	}

	if err := s.projector.Project(ctx, m.UserID); err != nil {
		s.log.Warn("claims projection failed after approval",
			zap.String("user_id", m.UserID), zap.Error(err))
	}

	// Children cascade membership into their mother institution. The
	// cascade write is intentionally outside the approval batch; a miss
	// here is repaired by the next bootstrap of this user.
	cascadeCreated := false
	inst, err := s.dir.Institution(ctx, m.InstitutionID)
	if err != nil {
		s.log.Warn("cascade lookup failed", zap.String("institution_id", m.InstitutionID), zap.Error(err))
	} else if inst.ParentID != "" {
		cascadeCreated, err = s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        m.UserID,
			InstitutionID: inst.ParentID,
			Role:          m.Role,
			Status:        models.MembershipApproved,
			IsExternal:    m.IsExternal,
			JoinMethod:    models.JoinAutoParent,
		})
		if err != nil {
			s.log.Warn("parent cascade failed, next bootstrap will heal",
				zap.String("user_id", m.UserID), zap.String("parent_id", inst.ParentID), zap.Error(err))
			err = nil
		}
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipApproved,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: m.InstitutionID,
		Resource:      m.UserID + "/" + m.InstitutionID,
		Note:          note,
	})

	updated, err := s.dir.Membership(ctx, m.UserID, m.InstitutionID)
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	return ReviewResult{
		Membership:     updated,
		HomeClaimed:    homeClaimed,
		CascadeCreated: cascadeCreated,
	}, nil
}

func (s *Service) reject(ctx context.Context, caller authz.Caller, m models.Membership, note string, now time.Time) (ReviewResult, error) {
	decided, err := s.dir.DecideMembership(ctx, m.UserID, m.InstitutionID, membershipstore.Decision{
		Status:     models.MembershipRejected,
		ReviewedBy: caller.ID,
		ReviewNote: note,
		ReviewedAt: now,
	})
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	if !decided {
		return ReviewResult{}, ErrInvalidState
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipRejected,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: m.InstitutionID,
		Resource:      m.UserID + "/" + m.InstitutionID,
		Note:          note,
	})

	updated, err := s.dir.Membership(ctx, m.UserID, m.InstitutionID)
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	return ReviewResult{Membership: updated}, nil
}

func (s *Service) transfer(ctx context.Context, caller authz.Caller, m models.Membership, note, target string, now time.Time) (ReviewResult, error) {
	if target == "" {
		return ReviewResult{}, ErrValidation
	}
	targetInst, err := s.dir.Institution(ctx, target)
	if errors.Is(err, directory.ErrNotFound) {
		return ReviewResult{}, ErrTransferTargetInvalid
	}
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	if !targetInst.IsActive {
		return ReviewResult{}, ErrTransferTargetInvalid
	}

	decided, err := s.dir.DecideMembership(ctx, m.UserID, m.InstitutionID, membershipstore.Decision{
		Status:        models.MembershipTransferred,
		ReviewedBy:    caller.ID,
		ReviewNote:    note,
		TransferredTo: target,
		ReviewedAt:    now,
	})
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	if !decided {
		return ReviewResult{}, ErrInvalidState
	}

	// A transfer always re-enters the review queue at the destination.
	// If a live membership already exists there, it stands; a rejected
	// one is re-opened.
	pending := models.Membership{
		UserID:        m.UserID,
		InstitutionID: target,
		Role:          m.Role,
		Status:        models.MembershipPending,
		IsExternal:    m.IsExternal,
		JoinMethod:    models.JoinAdminAdded,
	}
	if err := s.ensurePending(ctx, pending); err != nil {
		s.log.Warn("transfer destination membership create failed",
			zap.String("user_id", m.UserID), zap.String("target", target), zap.Error(err))
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionMembershipTransfer,
		ActorID:       caller.ID,
		ActorRole:     caller.Role,
		InstitutionID: m.InstitutionID,
		Resource:      m.UserID + "/" + m.InstitutionID,
		Note:          note,
		Details:       map[string]string{"transferred_to": target},
	})

	updated, err := s.dir.Membership(ctx, m.UserID, m.InstitutionID)
	if err != nil {
		return ReviewResult{}, storeErr(err)
	}
	res := ReviewResult{Membership: updated}
	if dest, derr := s.dir.Membership(ctx, m.UserID, target); derr == nil {
		res.TransferPending = &dest
	}
	return res, nil
}

// ensurePending guarantees a live membership exists for the pair: creates
// one when absent, re-opens a rejected one, and leaves pending/approved/
// transferred records alone.
func (s *Service) ensurePending(ctx context.Context, want models.Membership) error {
	existing, err := s.dir.Membership(ctx, want.UserID, want.InstitutionID)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		_, cerr := s.dir.CreateMembershipIfAbsent(ctx, want)
		return cerr
	case err != nil:
		return err
	}
	if existing.Status == models.MembershipRejected {
		return s.dir.ReplaceMembership(ctx, want)
	}
	return nil
}
