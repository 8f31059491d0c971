// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/lumenlms/admission/internal/app/system/normalize"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var errBadRole = errors.New(`role must be "student"|"instructor"|"institution_admin"|"super_admin"`)

// GetByID loads a user by principal ID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateIfAbsent inserts the user keyed by principal ID. If a record already
// exists for that principal the existing record is returned unchanged, so
// concurrent first logins cannot produce divergent users.
func (s *Store) CreateIfAbsent(ctx context.Context, u models.User) (models.User, bool, error) {
	if !models.ValidRole(u.Role) {
		return models.User{}, false, errBadRole
	}
	u.Email = normalize.Email(u.Email)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastLoginAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			existing, gerr := s.GetByID(ctx, u.ID)
			if gerr != nil {
				return models.User{}, false, gerr
			}
			return *existing, false, nil
		}
		return models.User{}, false, err
	}
	return u, true, nil
}

// TouchLastLogin stamps last_login_at for an existing user.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login_at": at,
		"updated_at":    at,
	}})
	return err
}

// ClaimHomeInstitution sets institution_id (and the matching role) only if
// the user has no home institution yet. Returns whether the claim landed.
// The filter makes the first approval win under concurrency.
func (s *Store) ClaimHomeInstitution(ctx context.Context, id, institutionID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id": id,
		"$or": []bson.M{
			{"institution_id": ""},
			{"institution_id": bson.M{"$exists": false}},
		},
	}, bson.M{"$set": bson.M{
		"institution_id": institutionID,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetActiveInstitution records which institution the user has in focus.
func (s *Store) SetActiveInstitution(ctx context.Context, id, institutionID string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"active_institution_id": institutionID,
		"updated_at":            time.Now().UTC(),
	}})
	return err
}

// ListByHomeInstitution returns all users whose home institution is the
// given one. Used by the backfill repair scan.
func (s *Store) ListByHomeInstitution(ctx context.Context, institutionID string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"institution_id": institutionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
