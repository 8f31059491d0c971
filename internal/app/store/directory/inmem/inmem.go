// internal/app/store/directory/inmem/inmem.go

// Package inmem is an in-memory Directory for tests. It mirrors the Mongo
// implementation's semantics: one membership per (user, institution),
// create-if-absent keyed by principal id, and compare-and-set decisions.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumenlms/admission/internal/app/store/directory"
	membershipstore "github.com/lumenlms/admission/internal/app/store/memberships"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pairKey struct {
	userID        string
	institutionID string
}

// Directory is the in-memory fake.
type Directory struct {
	mu           sync.Mutex
	institutions map[string]models.Institution
	users        map[string]models.User
	memberships  map[pairKey]models.Membership
	writes       int
}

var _ directory.Directory = (*Directory)(nil)

func New() *Directory {
	return &Directory{
		institutions: make(map[string]models.Institution),
		users:        make(map[string]models.User),
		memberships:  make(map[pairKey]models.Membership),
	}
}

// SeedInstitution inserts an institution directly, bypassing validation.
func (d *Directory) SeedInstitution(inst models.Institution) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.institutions[inst.ID] = inst
}

// SeedUser inserts a user directly.
func (d *Directory) SeedUser(u models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// SeedMembership inserts a membership directly.
func (d *Directory) SeedMembership(m models.Membership) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	d.memberships[pairKey{m.UserID, m.InstitutionID}] = m
}

// Writes reports how many mutating operations changed stored state. Tests
// use it to assert that re-running an idempotent operation writes nothing.
func (d *Directory) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *Directory) Institution(_ context.Context, id string) (models.Institution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inst, ok := d.institutions[id]
	if !ok {
		return models.Institution{}, directory.ErrNotFound
	}
	return inst, nil
}

func (d *Directory) ActiveInstitutions(_ context.Context) ([]models.Institution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Institution
	for _, inst := range d.institutions {
		if inst.IsActive {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) ActiveMother(_ context.Context) (*models.Institution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var best *models.Institution
	for _, inst := range d.institutions {
		if inst.Type != models.InstitutionMother || !inst.IsActive {
			continue
		}
		inst := inst
		if best == nil || inst.ID < best.ID {
			best = &inst
		}
	}
	return best, nil
}

func (d *Directory) User(_ context.Context, id string) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, directory.ErrNotFound
	}
	return u, nil
}

func (d *Directory) CreateUserIfAbsent(_ context.Context, u models.User) (models.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.users[u.ID]; ok {
		return existing, false, nil
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastLoginAt = now
	d.users[u.ID] = u
	d.writes++
	return u, true, nil
}

func (d *Directory) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return directory.ErrNotFound
	}
	u.LastLoginAt = at
	u.UpdatedAt = at
	d.users[id] = u
	return nil
}

func (d *Directory) UsersByHomeInstitution(_ context.Context, institutionID string) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.User
	for _, u := range d.users {
		if u.InstitutionID == institutionID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) Membership(_ context.Context, userID, institutionID string) (models.Membership, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.memberships[pairKey{userID, institutionID}]
	if !ok {
		return models.Membership{}, directory.ErrNotFound
	}
	return m, nil
}

func (d *Directory) MembershipsByUser(_ context.Context, userID string) ([]models.Membership, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Membership
	for _, m := range d.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstitutionID < out[j].InstitutionID })
	return out, nil
}

func (d *Directory) MembershipsByInstitution(_ context.Context, institutionID string, status models.MembershipStatus) ([]models.Membership, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Membership
	for _, m := range d.memberships {
		if m.InstitutionID != institutionID {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (d *Directory) CreateMembershipIfAbsent(_ context.Context, m models.Membership) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := pairKey{m.UserID, m.InstitutionID}
	if _, ok := d.memberships[key]; ok {
		return false, nil
	}
	m.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	d.memberships[key] = m
	d.writes++
	return true, nil
}

func (d *Directory) ReplaceMembership(_ context.Context, m models.Membership) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := pairKey{m.UserID, m.InstitutionID}
	now := time.Now().UTC()
	if prior, ok := d.memberships[key]; ok {
		m.ID = prior.ID
		m.CreatedAt = prior.CreatedAt
	} else {
		m.ID = primitive.NewObjectID()
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	m.ReviewNote = ""
	m.TransferredTo = ""
	d.memberships[key] = m
	d.writes++
	return nil
}

func (d *Directory) DecideMembership(_ context.Context, userID, institutionID string, dec membershipstore.Decision) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decideLocked(userID, institutionID, dec)
}

func (d *Directory) decideLocked(userID, institutionID string, dec membershipstore.Decision) (bool, error) {
	key := pairKey{userID, institutionID}
	m, ok := d.memberships[key]
	if !ok || m.Status != models.MembershipPending {
		return false, nil
	}
	m.Status = dec.Status
	m.ReviewedBy = dec.ReviewedBy
	at := dec.ReviewedAt
	m.ReviewedAt = &at
	m.ReviewNote = dec.ReviewNote
	m.TransferredTo = dec.TransferredTo
	m.UpdatedAt = dec.ReviewedAt
	d.memberships[key] = m
	d.writes++
	return true, nil
}

func (d *Directory) ApproveMembership(_ context.Context, userID, institutionID string, dec membershipstore.Decision) (decided, homeClaimed bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	decided, err = d.decideLocked(userID, institutionID, dec)
	if err != nil || !decided {
		return decided, false, err
	}
	u, ok := d.users[userID]
	if ok && u.InstitutionID == "" {
		u.InstitutionID = institutionID
		u.UpdatedAt = dec.ReviewedAt
		d.users[userID] = u
		d.writes++
		homeClaimed = true
	}
	return decided, homeClaimed, nil
}
