// internal/app/workflow/admission/bootstrap.go
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/system/normalize"
	"github.com/lumenlms/admission/internal/app/workflow/domainmatch"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.uber.org/zap"
)

// Principal is the authenticated caller as resolved by the identity
// provider: a stable opaque id plus an email address.
type Principal struct {
	ID    string
	Email string
	Name  string
}

// BootstrapResult reports what Bootstrap did.
type BootstrapResult struct {
	User    models.User
	Created bool
	// Healed counts membership records the self-heal pass created for an
	// existing user.
	Healed int
}

// Bootstrap runs on every authenticated session start.
//
// First login provisions the user: the email domain is matched against
// active institutions; a match makes the user an instructor homed there,
// otherwise the user is an external student homed at the active mother
// institution (if any). Approved memberships are created for the mother
// (auto_parent) and, when distinct, the domain-matched institution
// (email_domain).
//
// Later logins stamp last_login_at and re-create any membership the user's
// home institution or the mother implies but which is missing: membership
// records can lag the user record after partial failures, so every login
// self-heals instead of requiring an explicit repair step.
func (s *Service) Bootstrap(ctx context.Context, p Principal) (BootstrapResult, error) {
	p.Email = normalize.Email(p.Email)
	if p.ID == "" {
		return BootstrapResult{}, ErrValidation
	}
	if _, ok := normalize.EmailDomain(p.Email); !ok {
		return BootstrapResult{}, ErrValidation
	}

	insts, err := s.dir.ActiveInstitutions(ctx)
	if err != nil {
		return BootstrapResult{}, storeErr(err)
	}
	match := domainmatch.Match(p.Email, insts)

	mother, err := s.dir.ActiveMother(ctx)
	if err != nil {
		return BootstrapResult{}, storeErr(err)
	}

	existing, err := s.dir.User(ctx, p.ID)
	switch {
	case err == nil:
		return s.bootstrapExisting(ctx, existing, match, mother)
	case errors.Is(err, directory.ErrNotFound):
		// fall through to provisioning
	default:
		return BootstrapResult{}, storeErr(err)
	}

	role := models.RoleStudent
	primary := ""
	isExternal := true
	if match.Matched() {
		role = models.RoleInstructor
		primary = match.InstitutionID
		isExternal = false
	} else if mother != nil {
		primary = mother.ID
	}

	u, created, err := s.dir.CreateUserIfAbsent(ctx, models.User{
		ID:            p.ID,
		Email:         p.Email,
		FullName:      normalize.Name(p.Name),
		InstitutionID: primary,
		Role:          role,
		IsExternal:    isExternal,
	})
	if err != nil {
		return BootstrapResult{}, storeErr(err)
	}
	if !created {
		// Lost a concurrent first-login race; the winner's record stands.
		// Every field is a deterministic function of the email, so the
		// records agree; just run the heal pass.
		return s.bootstrapExisting(ctx, u, match, mother)
	}

	if mother != nil {
		if _, err := s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        u.ID,
			InstitutionID: mother.ID,
			Role:          u.Role,
			Status:        models.MembershipApproved,
			IsExternal:    u.IsExternal,
			JoinMethod:    models.JoinAutoParent,
		}); err != nil {
			s.log.Warn("mother enrollment failed, next login will heal",
				zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	if match.Matched() && (mother == nil || match.InstitutionID != mother.ID) {
		if _, err := s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        u.ID,
			InstitutionID: match.InstitutionID,
			Role:          u.Role,
			Status:        models.MembershipApproved,
			IsExternal:    false,
			JoinMethod:    models.JoinEmailDomain,
		}); err != nil {
			s.log.Warn("domain-match enrollment failed, next login will heal",
				zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	if err := s.projector.Project(ctx, u.ID); err != nil {
		s.log.Warn("claims projection failed after provisioning",
			zap.String("user_id", u.ID), zap.Error(err))
	}

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.ActionUserProvisioned,
		ActorID:       u.ID,
		ActorRole:     u.Role,
		InstitutionID: u.InstitutionID,
		Resource:      u.ID,
		Details:       map[string]string{"join": joinKind(match)},
	})

	return BootstrapResult{User: u, Created: true}, nil
}

func joinKind(match domainmatch.Result) string {
	if match.Matched() {
		return models.JoinEmailDomain
	}
	return models.JoinAutoParent
}

func (s *Service) bootstrapExisting(ctx context.Context, u models.User, match domainmatch.Result, mother *models.Institution) (BootstrapResult, error) {
	now := time.Now().UTC()
	if err := s.dir.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("last-login stamp failed", zap.String("user_id", u.ID), zap.Error(err))
	}

	healed := 0

	// Home-institution membership implied by the user record.
	if u.InstitutionID != "" {
		join := models.JoinAdminAdded
		if match.Matched() && match.InstitutionID == u.InstitutionID {
			join = models.JoinEmailDomain
		}
		created, err := s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        u.ID,
			InstitutionID: u.InstitutionID,
			Role:          u.Role,
			Status:        models.MembershipApproved,
			IsExternal:    u.IsExternal,
			JoinMethod:    join,
		})
		if err != nil {
			s.log.Warn("home membership heal failed", zap.String("user_id", u.ID), zap.Error(err))
		} else if created {
			healed++
			s.log.Warn("backfilled missing home membership",
				zap.String("user_id", u.ID), zap.String("institution_id", u.InstitutionID))
		}
	}

	// Global enrollment implied by the mother institution.
	if mother != nil && mother.ID != u.InstitutionID {
		created, err := s.dir.CreateMembershipIfAbsent(ctx, models.Membership{
			UserID:        u.ID,
			InstitutionID: mother.ID,
			Role:          u.Role,
			Status:        models.MembershipApproved,
			IsExternal:    u.IsExternal,
			JoinMethod:    models.JoinAutoParent,
		})
		if err != nil {
			s.log.Warn("mother membership heal failed", zap.String("user_id", u.ID), zap.Error(err))
		} else if created {
			healed++
			s.log.Warn("backfilled missing mother membership",
				zap.String("user_id", u.ID), zap.String("institution_id", mother.ID))
		}
	}

	return BootstrapResult{User: u, Healed: healed}, nil
}
