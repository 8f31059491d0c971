package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func initTestStore(t *testing.T) {
	t.Helper()
	prev := Store
	t.Cleanup(func() { Store = prev })
	if err := InitSessionStore("test-session-key-0123456789abcdefghij", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore: %v", err)
	}
}

type mapFetcher map[string]*SessionUser

func (m mapFetcher) Fetch(_ context.Context, id string) (*SessionUser, bool) {
	u, ok := m[id]
	return u, ok
}

func withFetcher(t *testing.T, f UserFetcher) {
	t.Helper()
	prev := fetcher
	t.Cleanup(func() { fetcher = prev })
	SetUserFetcher(f)
}

func okHandler() (http.Handler, *bool) {
	called := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}), called
}

func TestRequireSignedIn(t *testing.T) {
	next, called := okHandler()
	h := RequireSignedIn(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized || *called {
		t.Errorf("anonymous: status %d called=%v", rec.Code, *called)
	}

	rec = httptest.NewRecorder()
	r := WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{ID: "p1"})
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("signed in: status %d called=%v", rec.Code, *called)
	}
}

func TestRequireRole(t *testing.T) {
	next, _ := okHandler()
	h := RequireRole("super_admin", "institution_admin")(next)

	serve := func(u *SessionUser) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if u != nil {
			r = WithTestUser(r, u)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	if got := serve(nil); got != http.StatusUnauthorized {
		t.Errorf("anonymous: %d", got)
	}
	if got := serve(&SessionUser{ID: "p", Role: "student"}); got != http.StatusForbidden {
		t.Errorf("wrong role: %d", got)
	}
	if got := serve(&SessionUser{ID: "p", Role: "institution_admin"}); got != http.StatusOK {
		t.Errorf("allowed role: %d", got)
	}
	// Role comparison ignores case.
	if got := serve(&SessionUser{ID: "p", Role: "Super_Admin"}); got != http.StatusOK {
		t.Errorf("mixed-case role: %d", got)
	}
}

func TestSignInRoundTrip(t *testing.T) {
	initTestStore(t)
	withFetcher(t, nil)

	// Sign in and capture the session cookie.
	signInRec := httptest.NewRecorder()
	err := SignIn(signInRec, httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{
		ID: "p1", Name: "Jane Doe", Email: "jane@acme.edu", Role: "instructor", InstitutionID: "acme-u",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	// Replay the cookie through the middleware.
	var got *SessionUser
	h := LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no user in context after sign-in round trip")
	}
	if got.ID != "p1" || got.Role != "instructor" || got.InstitutionID != "acme-u" {
		t.Errorf("session user: %+v", got)
	}
}

func TestLoadSessionUserPrefersLiveRecord(t *testing.T) {
	initTestStore(t)

	signInRec := httptest.NewRecorder()
	if err := SignIn(signInRec, httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{
		ID: "p1", Role: "student",
	}); err != nil {
		t.Fatal(err)
	}

	// The record changed since the cookie was written.
	withFetcher(t, mapFetcher{"p1": {ID: "p1", Role: "institution_admin", InstitutionID: "acme-u"}})

	var got *SessionUser
	h := LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range signInRec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Role != "institution_admin" {
		t.Errorf("live record not preferred: %+v", got)
	}
}

func TestLoadSessionUserDeletedPrincipal(t *testing.T) {
	initTestStore(t)

	signInRec := httptest.NewRecorder()
	if err := SignIn(signInRec, httptest.NewRequest(http.MethodGet, "/", nil), &SessionUser{
		ID: "ghost", Role: "student",
	}); err != nil {
		t.Fatal(err)
	}

	// The principal no longer resolves; the request must proceed
	// unauthenticated rather than with the cookie's stale claims.
	withFetcher(t, mapFetcher{})

	var found bool
	h := LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = CurrentUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range signInRec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("deleted principal still authenticated from cookie")
	}
}

func TestSignOutExpiresCookie(t *testing.T) {
	initTestStore(t)

	rec := httptest.NewRecorder()
	if err := SignOut(rec, httptest.NewRequest(http.MethodPost, "/", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionName {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge = %d, want negative", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("no expiring session cookie set")
	}
}
