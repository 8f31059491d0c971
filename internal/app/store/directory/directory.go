// internal/app/store/directory/directory.go

// Package directory presents the document database to the admission
// workflow as one explicit interface instead of an ambient client. The
// state machine is written against Directory; production wires the Mongo
// implementation, tests wire the in-memory fake in the inmem subpackage.
package directory

import (
	"context"
	"errors"
	"time"

	membershipstore "github.com/lumenlms/admission/internal/app/store/memberships"
	"github.com/lumenlms/admission/internal/domain/models"
)

// ErrNotFound is returned for point reads of absent records.
var ErrNotFound = errors.New("directory: record not found")

// Directory is the durable keyed storage for institutions, users, and
// memberships. Implementations must make CreateUserIfAbsent and
// CreateMembershipIfAbsent safe under concurrent duplicate calls, and
// DecideMembership a compare-and-set on status=pending.
type Directory interface {
	// Institutions
	Institution(ctx context.Context, id string) (models.Institution, error)
	ActiveInstitutions(ctx context.Context) ([]models.Institution, error)
	// ActiveMother returns nil when no active mother institution exists.
	ActiveMother(ctx context.Context) (*models.Institution, error)

	// Users
	User(ctx context.Context, id string) (models.User, error)
	CreateUserIfAbsent(ctx context.Context, u models.User) (models.User, bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UsersByHomeInstitution(ctx context.Context, institutionID string) ([]models.User, error)

	// Memberships
	Membership(ctx context.Context, userID, institutionID string) (models.Membership, error)
	MembershipsByUser(ctx context.Context, userID string) ([]models.Membership, error)
	MembershipsByInstitution(ctx context.Context, institutionID string, status models.MembershipStatus) ([]models.Membership, error)
	CreateMembershipIfAbsent(ctx context.Context, m models.Membership) (bool, error)
	ReplaceMembership(ctx context.Context, m models.Membership) error
	DecideMembership(ctx context.Context, userID, institutionID string, d membershipstore.Decision) (bool, error)

	// ApproveMembership applies the approve decision and, when the user has
	// no home institution yet, claims it; the two writes land as one batch
	// where the backing store supports it, so readers never observe one
	// without the other. Returns whether the decision landed (false means
	// the membership was no longer pending) and whether the home claim did.
	ApproveMembership(ctx context.Context, userID, institutionID string, d membershipstore.Decision) (decided, homeClaimed bool, err error)
}
