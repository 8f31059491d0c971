// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/lumenlms/admission/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher adapts the user store to auth.UserFetcher so session middleware
// refreshes role and home institution from the live record on each request.
type Fetcher struct {
	store *Store
}

// NewFetcher constructs a Fetcher over the users collection.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// Fetch loads the live user record. ok=false means the principal no longer
// resolves and the request proceeds unauthenticated.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*auth.SessionUser, bool) {
	u, err := f.store.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, false
	}
	return &auth.SessionUser{
		ID:            u.ID,
		Name:          u.FullName,
		Email:         u.Email,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		IsExternal:    u.IsExternal,
	}, true
}
