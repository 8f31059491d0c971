package audit_test

import (
	"testing"
	"time"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/testutil"
)

func seedEvents(t *testing.T, store *audit.Store) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	events := []audit.Event{
		{Timestamp: base, Action: audit.ActionUserProvisioned, ActorID: "p1", Resource: "p1"},
		{Timestamp: base.Add(time.Minute), Action: audit.ActionMembershipRequested, ActorID: "p1", InstitutionID: "acme-u", Resource: "p1/acme-u"},
		{Timestamp: base.Add(2 * time.Minute), Action: audit.ActionMembershipApproved, ActorID: "adm-1", InstitutionID: "acme-u", Resource: "p1/acme-u"},
		{Timestamp: base.Add(3 * time.Minute), Action: audit.ActionMembershipRequested, ActorID: "p2", InstitutionID: "beta-u", Resource: "p2/beta-u"},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	seedEvents(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// By institution.
	got, err := store.Query(ctx, audit.QueryFilter{InstitutionID: "acme-u"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("institution filter: got %d events, want 2", len(got))
	}

	// By actor.
	got, err = store.Query(ctx, audit.QueryFilter{ActorID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("actor filter: got %d events, want 2", len(got))
	}

	// By action.
	got, err = store.Query(ctx, audit.QueryFilter{Action: audit.ActionMembershipApproved})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("action filter: got %d events, want 1", len(got))
	}

	// Most recent first.
	got, err = store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("unfiltered: got %d events, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatal("events not sorted most recent first")
		}
	}
}

func TestQueryTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	seedEvents(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	start := time.Now().UTC().Add(-time.Hour).Add(90 * time.Second)
	got, err := store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("start-time filter: got %d events, want 2", len(got))
	}

	end := start
	got, err = store.Query(ctx, audit.QueryFilter{EndTime: &end})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("end-time filter: got %d events, want 2", len(got))
	}
}

func TestQueryPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	seedEvents(t, store)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	page1, err := store.Query(ctx, audit.QueryFilter{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	page2, err := store.Query(ctx, audit.QueryFilter{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 3 || len(page2) != 1 {
		t.Errorf("pages: %d + %d, want 3 + 1", len(page1), len(page2))
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{InstitutionID: "acme-u"})
	if err != nil || n != 2 {
		t.Errorf("CountByFilter: got %d err=%v, want 2", n, err)
	}
}
