// internal/app/features/memberships/join.go
package memberships

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
)

// joinRequest is the payload for POST /memberships/join.
type joinRequest struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	JoinMethod    string `json:"join_method" validate:"required,oneof=browse invite_code"`
	InviteCode    string `json:"invite_code" validate:"required_if=JoinMethod invite_code"`
}

// HandleJoin records the caller's request to join an institution.
// POST /memberships/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}

	var req joinRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Admission.RequestJoin(ctx, caller, req.InstitutionID, req.JoinMethod, req.InviteCode)
	if err != nil {
		h.ErrLog.LogWorkflowError(w, r, "join request failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if res.Created {
		w.WriteHeader(http.StatusCreated)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"membership": res.Membership,
		"created":    res.Created,
	})
}
