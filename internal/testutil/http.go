package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/domain/models"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID            string
	Name          string
	Email         string
	Role          string
	InstitutionID string
	IsExternal    bool
}

// SuperAdminUser returns a TestUser with the super_admin role.
func SuperAdminUser() TestUser {
	return TestUser{
		ID:    "principal-superadmin",
		Name:  "Test Super Admin",
		Email: "superadmin@test.edu",
		Role:  models.RoleSuperAdmin,
	}
}

// InstitutionAdminUser returns a TestUser administering the institution.
func InstitutionAdminUser(institutionID string) TestUser {
	return TestUser{
		ID:            "principal-admin-" + institutionID,
		Name:          "Test Institution Admin",
		Email:         "admin@test.edu",
		Role:          models.RoleInstitutionAdmin,
		InstitutionID: institutionID,
	}
}

// StudentUser returns a TestUser with the student role homed at the
// institution (blank means no home yet).
func StudentUser(institutionID string) TestUser {
	return TestUser{
		ID:            "principal-student",
		Name:          "Test Student",
		Email:         "student@test.edu",
		Role:          models.RoleStudent,
		InstitutionID: institutionID,
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		InstitutionID: user.InstitutionID,
		IsExternal:    user.IsExternal,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// NewJSONRequest creates an HTTP request with a JSON body and Content-Type.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
