// internal/app/store/directory/mongo.go
package directory

import (
	"context"
	"errors"
	"time"

	institutionstore "github.com/lumenlms/admission/internal/app/store/institutions"
	membershipstore "github.com/lumenlms/admission/internal/app/store/memberships"
	userstore "github.com/lumenlms/admission/internal/app/store/users"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo implements Directory over the per-collection stores.
type Mongo struct {
	client       *mongo.Client
	institutions *institutionstore.Store
	users        *userstore.Store
	memberships  *membershipstore.Store
}

var _ Directory = (*Mongo)(nil)

// NewMongo builds the Mongo-backed Directory.
func NewMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{
		client:       client,
		institutions: institutionstore.New(db),
		users:        userstore.New(db),
		memberships:  membershipstore.New(db),
	}
}

// EnsureIndexes creates the indexes the workflow relies on.
func (d *Mongo) EnsureIndexes(ctx context.Context) error {
	return d.memberships.EnsureIndexes(ctx)
}

func (d *Mongo) Institution(ctx context.Context, id string) (models.Institution, error) {
	inst, err := d.institutions.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Institution{}, ErrNotFound
	}
	return inst, err
}

func (d *Mongo) ActiveInstitutions(ctx context.Context) ([]models.Institution, error) {
	return d.institutions.ListActive(ctx)
}

func (d *Mongo) ActiveMother(ctx context.Context) (*models.Institution, error) {
	return d.institutions.ActiveMother(ctx)
}

func (d *Mongo) User(ctx context.Context, id string) (models.User, error) {
	u, err := d.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return *u, nil
}

func (d *Mongo) CreateUserIfAbsent(ctx context.Context, u models.User) (models.User, bool, error) {
	return d.users.CreateIfAbsent(ctx, u)
}

func (d *Mongo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return d.users.TouchLastLogin(ctx, id, at)
}

func (d *Mongo) UsersByHomeInstitution(ctx context.Context, institutionID string) ([]models.User, error) {
	return d.users.ListByHomeInstitution(ctx, institutionID)
}

func (d *Mongo) Membership(ctx context.Context, userID, institutionID string) (models.Membership, error) {
	m, err := d.memberships.Get(ctx, userID, institutionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Membership{}, ErrNotFound
	}
	if err != nil {
		return models.Membership{}, err
	}
	return *m, nil
}

func (d *Mongo) MembershipsByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	return d.memberships.ListByUser(ctx, userID)
}

func (d *Mongo) MembershipsByInstitution(ctx context.Context, institutionID string, status models.MembershipStatus) ([]models.Membership, error) {
	return d.memberships.ListByInstitution(ctx, institutionID, status)
}

func (d *Mongo) CreateMembershipIfAbsent(ctx context.Context, m models.Membership) (bool, error) {
	return d.memberships.CreateIfAbsent(ctx, m)
}

func (d *Mongo) ReplaceMembership(ctx context.Context, m models.Membership) error {
	return d.memberships.Replace(ctx, m)
}

func (d *Mongo) DecideMembership(ctx context.Context, userID, institutionID string, dec membershipstore.Decision) (bool, error) {
	return d.memberships.Decide(ctx, userID, institutionID, dec)
}

func (d *Mongo) ApproveMembership(ctx context.Context, userID, institutionID string, dec membershipstore.Decision) (decided, homeClaimed bool, err error) {
	err = d.withTxn(ctx, func(ctx context.Context) error {
		var ierr error
		decided, ierr = d.memberships.Decide(ctx, userID, institutionID, dec)
		if ierr != nil || !decided {
			return ierr
		}
		homeClaimed, ierr = d.users.ClaimHomeInstitution(ctx, userID, institutionID)
		return ierr
	})
	return decided, homeClaimed, err
}

// withTxn runs fn inside a multi-document transaction when the deployment
// supports one (replica set / mongos). On standalone servers transactions
// are unavailable; the writes are applied sequentially, which the workflow
// tolerates because the decide CAS is the linearization point and bootstrap
// re-heals a missing home claim.
func (d *Mongo) withTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := d.client.StartSession()
	if err != nil {
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && txnUnsupported(err) {
		return fn(ctx)
	}
	return err
}

func txnUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IllegalOperation: transaction numbers only allowed on replica sets
		return cmdErr.Code == 20
	}
	return false
}
