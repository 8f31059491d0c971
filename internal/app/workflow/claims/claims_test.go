package claims_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/store/directory/inmem"
	"github.com/lumenlms/admission/internal/app/workflow/claims"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.uber.org/zap"
)

type fakeSink struct {
	stored  map[string]claims.Claims
	pushes  int
	readErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{stored: make(map[string]claims.Claims)}
}

func (s *fakeSink) Current(_ context.Context, userID string) (claims.Claims, bool, error) {
	if s.readErr != nil {
		return claims.Claims{}, false, s.readErr
	}
	c, ok := s.stored[userID]
	return c, ok, nil
}

func (s *fakeSink) Push(_ context.Context, userID string, c claims.Claims) error {
	s.stored[userID] = c
	s.pushes++
	return nil
}

func TestProjectPushesCurrentState(t *testing.T) {
	dir := inmem.New()
	dir.SeedUser(models.User{ID: "u1", Role: models.RoleInstructor, InstitutionID: "acme-u"})
	sink := newFakeSink()
	p := claims.NewProjector(dir, sink, zap.NewNop())

	if err := p.Project(context.Background(), "u1"); err != nil {
		t.Fatalf("Project: %v", err)
	}
	want := claims.Claims{Role: models.RoleInstructor, InstitutionID: "acme-u"}
	if got := sink.stored["u1"]; got != want {
		t.Errorf("stored claims = %+v, want %+v", got, want)
	}
}

func TestProjectSkipsWhenUnchanged(t *testing.T) {
	dir := inmem.New()
	dir.SeedUser(models.User{ID: "u1", Role: models.RoleStudent, InstitutionID: "hub"})
	sink := newFakeSink()
	sink.stored["u1"] = claims.Claims{Role: models.RoleStudent, InstitutionID: "hub"}
	p := claims.NewProjector(dir, sink, zap.NewNop())

	if err := p.Project(context.Background(), "u1"); err != nil {
		t.Fatalf("Project: %v", err)
	}
	if sink.pushes != 0 {
		t.Errorf("pushed %d times for unchanged claims", sink.pushes)
	}
}

func TestProjectPushesDespiteReadFailure(t *testing.T) {
	dir := inmem.New()
	dir.SeedUser(models.User{ID: "u1", Role: models.RoleStudent, InstitutionID: "hub"})
	sink := newFakeSink()
	sink.readErr = errors.New("cache down")
	p := claims.NewProjector(dir, sink, zap.NewNop())

	if err := p.Project(context.Background(), "u1"); err != nil {
		t.Fatalf("Project: %v", err)
	}
	if sink.pushes != 1 {
		t.Errorf("pushes = %d, want 1 (claims must converge even when reads fail)", sink.pushes)
	}
}

func TestProjectUnknownUser(t *testing.T) {
	p := claims.NewProjector(inmem.New(), newFakeSink(), zap.NewNop())
	if err := p.Project(context.Background(), "ghost"); !errors.Is(err, directory.ErrNotFound) {
		t.Errorf("got %v, want directory.ErrNotFound", err)
	}
}
