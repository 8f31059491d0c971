package memberships_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/features/memberships"
	"github.com/lumenlms/admission/internal/app/store/directory/inmem"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"github.com/lumenlms/admission/internal/app/workflow/claims"
	"github.com/lumenlms/admission/internal/domain/models"
	"github.com/lumenlms/admission/internal/testutil"
	"go.uber.org/zap"
)

type nopSink struct{}

func (nopSink) Current(_ context.Context, _ string) (claims.Claims, bool, error) {
	return claims.Claims{}, false, nil
}
func (nopSink) Push(_ context.Context, _ string, _ claims.Claims) error { return nil }

type testEnv struct {
	dir    *inmem.Directory
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := inmem.New()
	logger := zap.NewNop()
	projector := claims.NewProjector(dir, nopSink{}, logger)
	svc := admission.New(dir, projector, nil, logger)
	h := memberships.NewHandler(svc, dir, apierrors.NewErrorLogger(logger), logger)
	return &testEnv{dir: dir, router: memberships.Routes(h)}
}

func (e *testEnv) seedWorld() {
	e.dir.SeedInstitution(models.Institution{
		ID: "hub", Name: "Lumen Hub", Type: models.InstitutionMother, IsActive: true,
	})
	e.dir.SeedInstitution(models.Institution{
		ID: "acme-u", Name: "Acme University", Type: models.InstitutionChildOnline,
		ParentID: "hub", AllowExternalUsers: true, IsActive: true,
	})
	e.dir.SeedUser(models.User{
		ID: "principal-student", Email: "student@test.edu",
		Role: models.RoleStudent, InstitutionID: "hub",
	})
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
}

func TestJoinEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()

	req := testutil.NewJSONRequest(http.MethodPost, "/join",
		`{"institution_id":"acme-u","join_method":"browse"}`)
	req = testutil.WithUser(req, testutil.StudentUser("hub"))

	rec := e.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Created    bool              `json:"created"`
		Membership models.Membership `json:"membership"`
	}
	decodeBody(t, rec, &body)
	if !body.Created || body.Membership.Status != models.MembershipPending {
		t.Errorf("body: created=%v status=%s", body.Created, body.Membership.Status)
	}

	// Same request again: 200, created=false.
	req = testutil.NewJSONRequest(http.MethodPost, "/join",
		`{"institution_id":"acme-u","join_method":"browse"}`)
	req = testutil.WithUser(req, testutil.StudentUser("hub"))
	rec = e.do(req)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat status %d, want 200", rec.Code)
	}
}

func TestJoinEndpointValidation(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()

	cases := []string{
		`not json`,
		`{}`,
		`{"institution_id":"acme-u"}`,
		`{"institution_id":"acme-u","join_method":"teleport"}`,
		`{"institution_id":"acme-u","join_method":"invite_code"}`,
	}
	for _, body := range cases {
		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/join", body), testutil.StudentUser("hub"))
		if rec := e.do(req); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, rec.Code)
		}
	}
}

func TestJoinEndpointRequiresSession(t *testing.T) {
	e := newTestEnv(t)
	req := testutil.NewJSONRequest(http.MethodPost, "/join",
		`{"institution_id":"acme-u","join_method":"browse"}`)
	if rec := e.do(req); rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestMineEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()
	e.dir.SeedMembership(models.Membership{
		UserID: "principal-student", InstitutionID: "hub", Role: models.RoleStudent,
		Status: models.MembershipApproved, JoinMethod: models.JoinAutoParent,
	})

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/mine", testutil.StudentUser("hub"))
	rec := e.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Memberships []models.Membership `json:"memberships"`
	}
	decodeBody(t, rec, &body)
	if len(body.Memberships) != 1 || body.Memberships[0].InstitutionID != "hub" {
		t.Errorf("memberships: %+v", body.Memberships)
	}
}

func TestQueueEndpointScope(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()
	e.dir.SeedMembership(models.Membership{
		UserID: "principal-student", InstitutionID: "acme-u", Role: models.RoleStudent,
		Status: models.MembershipPending, JoinMethod: models.JoinBrowse,
	})

	// Institution admin of acme-u sees its queue.
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/queue/acme-u", testutil.InstitutionAdminUser("acme-u"))
	rec := e.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("own queue: status %d", rec.Code)
	}
	var body struct {
		Pending []models.Membership `json:"pending"`
	}
	decodeBody(t, rec, &body)
	if len(body.Pending) != 1 {
		t.Errorf("pending: %+v", body.Pending)
	}

	// Admin of another institution is rejected.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/queue/acme-u", testutil.InstitutionAdminUser("other-u"))
	if rec := e.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("foreign queue: status %d, want 403", rec.Code)
	}

	// Student is stopped by the role gate.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/queue/acme-u", testutil.StudentUser("acme-u"))
	if rec := e.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("student queue: status %d, want 403", rec.Code)
	}

	// Super admin sees everything.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/queue/acme-u", testutil.SuperAdminUser())
	if rec := e.do(req); rec.Code != http.StatusOK {
		t.Errorf("super admin queue: status %d", rec.Code)
	}
}

func TestReviewEndpointApprove(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()
	e.dir.SeedUser(models.User{ID: "applicant", Email: "a@gmail.com", Role: models.RoleStudent})
	e.dir.SeedMembership(models.Membership{
		UserID: "applicant", InstitutionID: "acme-u", Role: models.RoleStudent,
		Status: models.MembershipPending, JoinMethod: models.JoinBrowse,
	})

	req := testutil.NewJSONRequest(http.MethodPost, "/review",
		`{"user_id":"applicant","institution_id":"acme-u","action":"approve","note":"ok"}`)
	req = testutil.WithUser(req, testutil.InstitutionAdminUser("acme-u"))

	rec := e.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Membership     models.Membership `json:"membership"`
		HomeClaimed    bool              `json:"home_claimed"`
		CascadeCreated bool              `json:"cascade_created"`
	}
	decodeBody(t, rec, &body)
	if body.Membership.Status != models.MembershipApproved || !body.HomeClaimed || !body.CascadeCreated {
		t.Errorf("body: %+v", body)
	}

	// Deciding again conflicts.
	req = testutil.NewJSONRequest(http.MethodPost, "/review",
		`{"user_id":"applicant","institution_id":"acme-u","action":"approve"}`)
	req = testutil.WithUser(req, testutil.InstitutionAdminUser("acme-u"))
	if rec := e.do(req); rec.Code != http.StatusConflict {
		t.Errorf("second review: status %d, want 409", rec.Code)
	}
}

func TestReviewEndpointTransferValidation(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()

	// transfer without a target fails validation before the workflow runs.
	req := testutil.NewJSONRequest(http.MethodPost, "/review",
		`{"user_id":"applicant","institution_id":"acme-u","action":"transfer"}`)
	req = testutil.WithUser(req, testutil.SuperAdminUser())
	if rec := e.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestAssignEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()
	e.dir.SeedUser(models.User{ID: "applicant", Email: "a@gmail.com", Role: models.RoleStudent})

	req := testutil.NewJSONRequest(http.MethodPost, "/assign",
		`{"user_id":"applicant","institution_id":"acme-u"}`)
	req = testutil.WithUser(req, testutil.InstitutionAdminUser("acme-u"))

	rec := e.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Membership models.Membership `json:"membership"`
	}
	decodeBody(t, rec, &body)
	if body.Membership.Status != models.MembershipApproved || body.Membership.JoinMethod != models.JoinAdminAdded {
		t.Errorf("membership: %+v", body.Membership)
	}
}

func TestBackfillEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()
	e.dir.SeedUser(models.User{ID: "u1", Role: models.RoleStudent, InstitutionID: "acme-u"})
	e.dir.SeedUser(models.User{ID: "u2", Role: models.RoleStudent, InstitutionID: "acme-u"})

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/backfill/acme-u", testutil.InstitutionAdminUser("acme-u"))
	rec := e.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Created int `json:"created"`
	}
	decodeBody(t, rec, &body)
	if body.Created != 2 {
		t.Errorf("created: got %d, want 2", body.Created)
	}
}

func TestUserMembershipsEndpointHidesUnknownUsers(t *testing.T) {
	e := newTestEnv(t)
	e.seedWorld()

	// Unknown user and forbidden user produce the same response.
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/users/no-such-user", testutil.StudentUser("hub"))
	if rec := e.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("unknown user: status %d, want 403", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/users/principal-student", testutil.StudentUser("hub"))
	if rec := e.do(req); rec.Code != http.StatusOK {
		t.Errorf("own memberships: status %d, want 200", rec.Code)
	}
}
