package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/lumenlms/admission/internal/app/store/users"
	"github.com/lumenlms/admission/internal/domain/models"
	"github.com/lumenlms/admission/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateIfAbsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)

	u, created, err := store.CreateIfAbsent(ctx, models.User{
		ID: "p1", Email: " Jane@ACME.edu ", FullName: "Jane Doe", Role: models.RoleInstructor,
	})
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("first insert reported created=false")
	}
	if u.Email != "jane@acme.edu" {
		t.Errorf("email not normalized: %q", u.Email)
	}

	// Same principal again: the existing record wins.
	again, created, err := store.CreateIfAbsent(ctx, models.User{
		ID: "p1", Email: "jane@acme.edu", FullName: "Someone Else", Role: models.RoleStudent,
	})
	if err != nil {
		t.Fatalf("second CreateIfAbsent: %v", err)
	}
	if created {
		t.Error("duplicate insert reported created=true")
	}
	if again.FullName != "Jane Doe" || again.Role != models.RoleInstructor {
		t.Errorf("existing record was not returned unchanged: %+v", again)
	}

	if _, _, err := store.CreateIfAbsent(ctx, models.User{ID: "p2", Role: "emperor"}); err == nil {
		t.Error("bad role accepted")
	}
}

func TestGetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)

	if _, _, err := store.CreateIfAbsent(ctx, models.User{
		ID: "p1", Email: "jane@acme.edu", Role: models.RoleStudent,
	}); err != nil {
		t.Fatal(err)
	}

	u, err := store.GetByEmail(ctx, "JANE@acme.EDU")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != "p1" {
		t.Errorf("got %q", u.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@acme.edu"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing email: got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestClaimHomeInstitutionFirstWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)

	if _, _, err := store.CreateIfAbsent(ctx, models.User{
		ID: "p1", Email: "jane@gmail.com", Role: models.RoleStudent,
	}); err != nil {
		t.Fatal(err)
	}

	claimed, err := store.ClaimHomeInstitution(ctx, "p1", "acme-u")
	if err != nil {
		t.Fatalf("ClaimHomeInstitution: %v", err)
	}
	if !claimed {
		t.Fatal("first claim did not land")
	}

	// Later claims lose; the home institution is write-once here.
	claimed, err = store.ClaimHomeInstitution(ctx, "p1", "beta-u")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second claim landed over an existing home")
	}

	u, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if u.InstitutionID != "acme-u" {
		t.Errorf("home institution: got %q, want acme-u", u.InstitutionID)
	}
}

func TestTouchLastLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)

	if _, _, err := store.CreateIfAbsent(ctx, models.User{
		ID: "p1", Email: "jane@acme.edu", Role: models.RoleStudent,
	}); err != nil {
		t.Fatal(err)
	}

	stamp := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
	if err := store.TouchLastLogin(ctx, "p1", stamp); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	u, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !u.LastLoginAt.Equal(stamp) {
		t.Errorf("last_login_at: got %v, want %v", u.LastLoginAt, stamp)
	}
}

func TestListByHomeInstitution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)

	f.CreateUser(ctx, "u1", "u1@acme.edu", models.RoleStudent, "acme-u")
	f.CreateUser(ctx, "u2", "u2@acme.edu", models.RoleInstructor, "acme-u")
	f.CreateUser(ctx, "u3", "u3@beta.edu", models.RoleStudent, "beta-u")

	users, err := store.ListByHomeInstitution(ctx, "acme-u")
	if err != nil {
		t.Fatalf("ListByHomeInstitution: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}
}
