// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

// ErrDuplicateMembership is returned when a membership already exists for
// the (user, institution) pair.
var ErrDuplicateMembership = errors.New("membership already exists for this user and institution")

// EnsureIndexes creates the uniqueness and review-queue indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// One membership per (user, institution).
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "institution_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Admin review queue: pending memberships per institution.
		{
			Keys: bson.D{{Key: "institution_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Get loads the membership for (userID, institutionID).
// Returns mongo.ErrNoDocuments if absent.
func (s *Store) Get(ctx context.Context, userID, institutionID string) (*models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "institution_id": institutionID}).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByUser returns all memberships for a user.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ms []models.Membership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// ListByInstitution returns memberships at an institution, optionally
// filtered by status. status "" returns all.
func (s *Store) ListByInstitution(ctx context.Context, institutionID string, status models.MembershipStatus) ([]models.Membership, error) {
	filter := bson.M{"institution_id": institutionID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ms []models.Membership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// CreateIfAbsent inserts the membership unless one already exists for the
// pair. The unique index turns a concurrent double-insert into a duplicate
// error, which is reported as created=false rather than an error.
func (s *Store) CreateIfAbsent(ctx context.Context, m models.Membership) (bool, error) {
	if !models.ValidMembershipStatus(m.Status) {
		return false, errBadStatus
	}
	m.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var errBadStatus = errors.New(`status must be "pending"|"approved"|"rejected"|"transferred"`)

// Replace overwrites the membership for the pair, preserving the original
// created_at when a prior record exists. Used by direct admin assignment,
// which may supersede a pending/rejected/transferred record.
func (s *Store) Replace(ctx context.Context, m models.Membership) error {
	if !models.ValidMembershipStatus(m.Status) {
		return errBadStatus
	}
	now := time.Now().UTC()
	set := bson.M{
		"role":        m.Role,
		"status":      m.Status,
		"is_external": m.IsExternal,
		"join_method": m.JoinMethod,
		"updated_at":  now,
	}
	// Review stamps from a superseded decision must not survive on the
	// replacement record, so zero values clear rather than keep them.
	unset := bson.M{"review_note": "", "transferred_to": ""}
	if m.ReviewedBy != "" {
		set["reviewed_by"] = m.ReviewedBy
	} else {
		unset["reviewed_by"] = ""
	}
	if m.ReviewedAt != nil {
		set["reviewed_at"] = *m.ReviewedAt
	} else {
		unset["reviewed_at"] = ""
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": m.UserID, "institution_id": m.InstitutionID},
		bson.M{
			"$set":         set,
			"$unset":       unset,
			"$setOnInsert": bson.M{"user_id": m.UserID, "institution_id": m.InstitutionID, "created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Decision carries the fields stamped onto a pending membership by review.
type Decision struct {
	Status        models.MembershipStatus
	ReviewedBy    string
	ReviewNote    string
	TransferredTo string // set only for transfers
	ReviewedAt    time.Time
}

// Decide moves a membership out of pending with a compare-and-set: the
// update filter requires status=pending, so of two concurrent reviews only
// one observes modified=true and owns the decision's side effects.
func (s *Store) Decide(ctx context.Context, userID, institutionID string, d Decision) (bool, error) {
	if !models.ValidMembershipStatus(d.Status) || d.Status == models.MembershipPending {
		return false, errBadStatus
	}
	set := bson.M{
		"status":      d.Status,
		"reviewed_by": d.ReviewedBy,
		"reviewed_at": d.ReviewedAt,
		"updated_at":  d.ReviewedAt,
	}
	if d.ReviewNote != "" {
		set["review_note"] = d.ReviewNote
	}
	if d.TransferredTo != "" {
		set["transferred_to"] = d.TransferredTo
	}
	res, err := s.c.UpdateOne(ctx, bson.M{
		"user_id":        userID,
		"institution_id": institutionID,
		"status":         models.MembershipPending,
	}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// CountByInstitution returns the count of memberships at an institution,
// optionally filtered by status.
func (s *Store) CountByInstitution(ctx context.Context, institutionID string, status models.MembershipStatus) (int64, error) {
	filter := bson.M{"institution_id": institutionID}
	if status != "" {
		filter["status"] = status
	}
	return s.c.CountDocuments(ctx, filter)
}
