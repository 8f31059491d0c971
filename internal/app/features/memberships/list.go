// internal/app/features/memberships/list.go
package memberships

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/policy/reviewpolicy"
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"github.com/lumenlms/admission/internal/domain/models"
)

// ServeMine lists the caller's own memberships across institutions.
// GET /memberships/mine
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ms, err := h.Dir.MembershipsByUser(ctx, caller.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list own memberships failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"memberships": ms})
}

// ServeQueue lists an institution's pending membership requests for review.
// Scope: super admins for any institution, institution admins for their own.
// GET /memberships/queue/{institutionID}
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	scope := reviewpolicy.CanListQueue(r)
	if !scope.CanList || (!scope.AllInstitutions && scope.InstitutionID != institutionID) {
		apierrors.WriteForbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ms, err := h.Dir.MembershipsByInstitution(ctx, institutionID, models.MembershipPending)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list review queue failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"institution_id": institutionID,
		"pending":        ms,
	})
}

// ServeUserMemberships lists another user's memberships. Users may always
// read their own; admins may read users homed in institutions they
// administer.
// GET /memberships/users/{userID}
func (h *Handler) ServeUserMemberships(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Dir.User(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// Same response as an authorization failure, so callers
			// cannot probe which principals exist.
			apierrors.WriteForbidden(w)
			return
		}
		h.ErrLog.LogServerError(w, r, "load user for membership listing failed", err)
		return
	}

	if !reviewpolicy.CanViewMemberships(r, userID, u.InstitutionID) {
		apierrors.WriteForbidden(w)
		return
	}

	ms, err := h.Dir.MembershipsByUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list user memberships failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":     userID,
		"memberships": ms,
	})
}
