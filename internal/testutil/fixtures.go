package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateInstitution creates an active test institution keyed by slug.
func (f *Fixtures) CreateInstitution(ctx context.Context, slug, name, typ, parentID string, domains ...string) models.Institution {
	f.t.Helper()

	now := time.Now().UTC()
	inst := models.Institution{
		ID:                  slug,
		Name:                name,
		Type:                typ,
		ParentID:            parentID,
		AllowedEmailDomains: domains,
		AllowExternalUsers:  true,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := f.db.Collection("institutions").InsertOne(ctx, inst); err != nil {
		f.t.Fatalf("failed to create test institution: %v", err)
	}
	return inst
}

// CreateUser creates a test user with the given role and home institution.
func (f *Fixtures) CreateUser(ctx context.Context, id, email, role, institutionID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            id,
		Email:         email,
		FullName:      "Test " + id,
		InstitutionID: institutionID,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateMembership creates a membership in the given status for the pair.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, institutionID string, status models.MembershipStatus, joinMethod string) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		UserID:        userID,
		InstitutionID: institutionID,
		Role:          models.RoleStudent,
		Status:        status,
		JoinMethod:    joinMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}
