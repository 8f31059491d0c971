package reviewpolicy_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenlms/admission/internal/app/policy/reviewpolicy"
	"github.com/lumenlms/admission/internal/testutil"
)

func anonymous() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/", nil)
}

func as(u testutil.TestUser) *http.Request {
	return testutil.NewAuthenticatedRequest(http.MethodGet, "/", u)
}

func TestCanListQueue(t *testing.T) {
	if scope := reviewpolicy.CanListQueue(anonymous()); scope.CanList {
		t.Error("anonymous caller can list queues")
	}

	scope := reviewpolicy.CanListQueue(as(testutil.SuperAdminUser()))
	if !scope.CanList || !scope.AllInstitutions {
		t.Errorf("super admin scope: %+v", scope)
	}

	scope = reviewpolicy.CanListQueue(as(testutil.InstitutionAdminUser("acme-u")))
	if !scope.CanList || scope.AllInstitutions || scope.InstitutionID != "acme-u" {
		t.Errorf("institution admin scope: %+v", scope)
	}

	// Institution admin without a home institution has nothing to list.
	u := testutil.InstitutionAdminUser("")
	if scope := reviewpolicy.CanListQueue(as(u)); scope.CanList {
		t.Error("homeless institution admin can list queues")
	}

	if scope := reviewpolicy.CanListQueue(as(testutil.StudentUser("acme-u"))); scope.CanList {
		t.Error("student can list queues")
	}
}

func TestCanReview(t *testing.T) {
	if reviewpolicy.CanReview(anonymous(), "acme-u") {
		t.Error("anonymous caller can review")
	}
	if !reviewpolicy.CanReview(as(testutil.SuperAdminUser()), "acme-u") {
		t.Error("super admin cannot review")
	}
	if !reviewpolicy.CanReview(as(testutil.InstitutionAdminUser("acme-u")), "acme-u") {
		t.Error("institution admin cannot review own institution")
	}
	if reviewpolicy.CanReview(as(testutil.InstitutionAdminUser("other-u")), "acme-u") {
		t.Error("institution admin can review a foreign institution")
	}
	if reviewpolicy.CanReview(as(testutil.StudentUser("acme-u")), "acme-u") {
		t.Error("student can review")
	}
}

func TestCanManageInstitutions(t *testing.T) {
	if !reviewpolicy.CanManageInstitutions(as(testutil.SuperAdminUser())) {
		t.Error("super admin cannot manage institutions")
	}
	if reviewpolicy.CanManageInstitutions(as(testutil.InstitutionAdminUser("acme-u"))) {
		t.Error("institution admin can manage institutions")
	}
	if reviewpolicy.CanManageInstitutions(anonymous()) {
		t.Error("anonymous caller can manage institutions")
	}
}

func TestCanViewAudit(t *testing.T) {
	super := as(testutil.SuperAdminUser())
	admin := as(testutil.InstitutionAdminUser("acme-u"))

	if !reviewpolicy.CanViewAudit(super, "") {
		t.Error("super admin cannot run a cross-institution audit query")
	}
	if reviewpolicy.CanViewAudit(admin, "") {
		t.Error("institution admin can run a cross-institution audit query")
	}
	if !reviewpolicy.CanViewAudit(admin, "acme-u") {
		t.Error("institution admin cannot audit own institution")
	}
	if reviewpolicy.CanViewAudit(admin, "other-u") {
		t.Error("institution admin can audit a foreign institution")
	}
}

func TestCanViewMemberships(t *testing.T) {
	student := testutil.StudentUser("acme-u")

	if !reviewpolicy.CanViewMemberships(as(student), student.ID, "acme-u") {
		t.Error("user cannot view own memberships")
	}
	if reviewpolicy.CanViewMemberships(as(student), "someone-else", "acme-u") {
		t.Error("student can view another user's memberships")
	}
	if !reviewpolicy.CanViewMemberships(as(testutil.InstitutionAdminUser("acme-u")), "someone-else", "acme-u") {
		t.Error("admin cannot view memberships of a user homed at own institution")
	}
	if reviewpolicy.CanViewMemberships(as(testutil.InstitutionAdminUser("other-u")), "someone-else", "acme-u") {
		t.Error("admin can view memberships of a user homed elsewhere")
	}
	if !reviewpolicy.CanViewMemberships(as(testutil.SuperAdminUser()), "someone-else", "acme-u") {
		t.Error("super admin cannot view memberships")
	}
}
