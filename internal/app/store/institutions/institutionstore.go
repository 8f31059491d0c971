// internal/app/store/institutions/institutionstore.go
package institutionstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("institutions")}
}

var (
	// ErrDuplicateInstitution is returned when the slug is already taken.
	ErrDuplicateInstitution = errors.New("an institution with this slug already exists")
	// ErrMotherExists is returned when creating a second active mother institution.
	ErrMotherExists = errors.New("an active mother institution already exists")
	// ErrParentNotMother is returned when a child names a parent that is not a mother.
	ErrParentNotMother = errors.New("parent institution must be an active mother")
	errBadType         = errors.New(`type must be "mother"|"child_online"|"child_offline"`)
	errParentRequired  = errors.New("child institutions must name a parent institution")
	errParentForbidden = errors.New("mother institutions cannot name a parent institution")
)

// Create inserts a new institution after validating the hierarchy rules:
// children must reference an existing active mother (which keeps the tree at
// depth one, since a child can never qualify as a parent), and at most one
// active mother may exist at a time.
func (s *Store) Create(ctx context.Context, inst models.Institution) (models.Institution, error) {
	if !models.ValidInstitutionType(inst.Type) {
		return models.Institution{}, errBadType
	}

	switch {
	case inst.Type == models.InstitutionMother:
		if inst.ParentID != "" {
			return models.Institution{}, errParentForbidden
		}
		n, err := s.c.CountDocuments(ctx, bson.M{"type": models.InstitutionMother, "is_active": true})
		if err != nil {
			return models.Institution{}, err
		}
		if n > 0 {
			return models.Institution{}, ErrMotherExists
		}
	default:
		if inst.ParentID == "" {
			return models.Institution{}, errParentRequired
		}
		var parent models.Institution
		err := s.c.FindOne(ctx, bson.M{"_id": inst.ParentID}).Decode(&parent)
		if err == mongo.ErrNoDocuments {
			return models.Institution{}, ErrParentNotMother
		}
		if err != nil {
			return models.Institution{}, err
		}
		if parent.Type != models.InstitutionMother || !parent.IsActive {
			return models.Institution{}, ErrParentNotMother
		}
	}

	now := time.Now().UTC()
	inst.IsActive = true
	inst.CreatedAt = now
	inst.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Institution{}, ErrDuplicateInstitution
		}
		return models.Institution{}, err
	}
	return inst, nil
}

// GetByID loads an institution by slug. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id string) (models.Institution, error) {
	var inst models.Institution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return models.Institution{}, err
	}
	return inst, nil
}

// ListActive returns all active institutions sorted by slug. The stable sort
// gives the domain matcher a deterministic scan order.
func (s *Store) ListActive(ctx context.Context) ([]models.Institution, error) {
	cur, err := s.c.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var insts []models.Institution
	if err := cur.All(ctx, &insts); err != nil {
		return nil, err
	}
	return insts, nil
}

// ActiveMother returns the active mother institution, or nil if none exists.
// With pre-existing bad data more than one may exist; the lowest slug wins so
// repeated calls agree.
func (s *Store) ActiveMother(ctx context.Context) (*models.Institution, error) {
	cur, err := s.c.Find(ctx, bson.M{"type": models.InstitutionMother, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var mothers []models.Institution
	if err := cur.All(ctx, &mothers); err != nil {
		return nil, err
	}
	if len(mothers) == 0 {
		return nil, nil
	}
	best := mothers[0]
	for _, m := range mothers[1:] {
		if m.ID < best.ID {
			best = m
		}
	}
	return &best, nil
}

// Deactivate flips is_active off. The institution stops matching in domain
// resolution and browsing; existing memberships remain readable.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetInviteCode stores the bcrypt hash of a newly rotated invite code.
func (s *Store) SetInviteCode(ctx context.Context, id, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), 12)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"invite_code_hash": string(hash),
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
