// internal/app/features/memberships/manage.go
package memberships

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
)

// assignRequest is the payload for POST /memberships/assign.
type assignRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	InstitutionID string `json:"institution_id" validate:"required"`
}

// HandleAssign adds a user directly to an institution as approved, skipping
// the request-and-review flow.
// POST /memberships/assign
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}

	var req assignRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Admission.Assign(ctx, caller, req.UserID, req.InstitutionID)
	if err != nil {
		h.ErrLog.LogWorkflowError(w, r, "membership assign failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"membership": m})
}

// HandleBackfill creates any missing approved memberships for users homed
// at the institution. Safe to re-run.
// POST /memberships/backfill/{institutionID}
func (h *Handler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}
	institutionID := chi.URLParam(r, "institutionID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	created, err := h.Admission.Backfill(ctx, caller, institutionID)
	if err != nil {
		h.ErrLog.LogWorkflowError(w, r, "membership backfill failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"institution_id": institutionID,
		"created":        created,
	})
}
