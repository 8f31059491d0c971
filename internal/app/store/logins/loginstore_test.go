package loginstore_test

import (
	"net/http/httptest"
	"testing"
	"time"

	loginstore "github.com/lumenlms/admission/internal/app/store/logins"
	"github.com/lumenlms/admission/internal/domain/models"
	"github.com/lumenlms/admission/internal/testutil"
)

func TestCreateAndRecentByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, models.LoginRecord{
			UserID: "p1", Email: "p1@acme.edu", At: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Create(ctx, models.LoginRecord{UserID: "p2", Email: "p2@acme.edu"}); err != nil {
		t.Fatal(err)
	}

	recs, err := store.RecentByUser(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].At.Before(recs[1].At) {
		t.Error("records not sorted newest first")
	}

	// Zero At is stamped on insert.
	recs, err = store.RecentByUser(ctx, "p2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].At.IsZero() {
		t.Errorf("p2 records: %+v", recs)
	}
}

func TestCreateFromCapturesClientInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := httptest.NewRequest("GET", "/auth/google/callback", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("User-Agent", "test-agent/1.0")

	if err := store.CreateFrom(ctx, r, "p1", "p1@acme.edu"); err != nil {
		t.Fatalf("CreateFrom: %v", err)
	}

	recs, err := store.RecentByUser(ctx, "p1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].IP != "203.0.113.9" {
		t.Errorf("IP: got %q, want first X-Forwarded-For hop", recs[0].IP)
	}
	if recs[0].UserAgent != "test-agent/1.0" {
		t.Errorf("user agent: %q", recs[0].UserAgent)
	}
}
