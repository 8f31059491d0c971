// internal/app/workflow/claims/mongosink.go
package claims

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink stores projected claims in a user_claims collection keyed by
// principal id. The token issuer reads this collection when minting
// sessions.
type MongoSink struct {
	c *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{c: db.Collection("user_claims")}
}

type claimsDoc struct {
	ID            string    `bson:"_id"`
	Role          string    `bson:"role"`
	InstitutionID string    `bson:"institution_id,omitempty"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (s *MongoSink) Current(ctx context.Context, userID string) (Claims, bool, error) {
	var doc claimsDoc
	err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Claims{}, false, nil
	}
	if err != nil {
		return Claims{}, false, err
	}
	return Claims{Role: doc.Role, InstitutionID: doc.InstitutionID}, true, nil
}

func (s *MongoSink) Push(ctx context.Context, userID string, c Claims) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"role":           c.Role,
			"institution_id": c.InstitutionID,
			"updated_at":     time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
