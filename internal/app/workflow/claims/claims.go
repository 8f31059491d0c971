// internal/app/workflow/claims/claims.go

// Package claims synchronizes the authoritative role/institution fields on
// the user record into the externally visible claims cache. The session
// middleware independently refreshes from the live record on each request,
// so projected claims are a cache for token issuance, never a source of
// truth.
package claims

import (
	"context"

	"github.com/lumenlms/admission/internal/app/store/directory"
	"go.uber.org/zap"
)

// Claims are the externally visible authorization fields for a principal.
type Claims struct {
	Role          string
	InstitutionID string
}

// Sink is where projected claims land (the identity provider's custom
// claims, or a claims cache collection the token issuer reads).
type Sink interface {
	// Current returns the claims currently held for the principal, with
	// ok=false when none have been projected yet.
	Current(ctx context.Context, userID string) (Claims, bool, error)
	Push(ctx context.Context, userID string, c Claims) error
}

// Projector reads the user record and pushes its role/institution into the
// sink. Projecting unchanged state is a no-op.
type Projector struct {
	dir  directory.Directory
	sink Sink
	log  *zap.Logger
}

func NewProjector(dir directory.Directory, sink Sink, log *zap.Logger) *Projector {
	return &Projector{dir: dir, sink: sink, log: log}
}

// Project pushes the user's current role/institution into the sink.
// Must be called after any operation that changes role or institution_id
// on the user record.
func (p *Projector) Project(ctx context.Context, userID string) error {
	u, err := p.dir.User(ctx, userID)
	if err != nil {
		return err
	}
	want := Claims{Role: u.Role, InstitutionID: u.InstitutionID}

	cur, ok, err := p.sink.Current(ctx, userID)
	if err == nil && ok && cur == want {
		return nil
	}
	if err != nil {
		// Reading the cache failed; push anyway so claims converge.
		p.log.Warn("claims cache read failed, pushing unconditionally",
			zap.String("user_id", userID), zap.Error(err))
	}
	return p.sink.Push(ctx, userID, want)
}
