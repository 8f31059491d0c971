// internal/app/features/memberships/review.go
package memberships

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
)

// reviewRequest is the payload for POST /memberships/review.
type reviewRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	InstitutionID  string `json:"institution_id" validate:"required"`
	Action         string `json:"action" validate:"required,oneof=approve reject transfer"`
	Note           string `json:"note" validate:"max=2000"`
	TransferTarget string `json:"transfer_target" validate:"required_if=Action transfer"`
}

// HandleReview decides a pending membership: approve, reject, or transfer.
// POST /memberships/review
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}

	var req reviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Admission.Review(ctx, caller, admission.ReviewInput{
		UserID:         req.UserID,
		InstitutionID:  req.InstitutionID,
		Action:         req.Action,
		Note:           req.Note,
		TransferTarget: req.TransferTarget,
	})
	if err != nil {
		h.ErrLog.LogWorkflowError(w, r, "membership review failed", err)
		return
	}

	body := map[string]any{
		"membership":      res.Membership,
		"home_claimed":    res.HomeClaimed,
		"cascade_created": res.CascadeCreated,
	}
	if res.TransferPending != nil {
		body["transfer_pending"] = res.TransferPending
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
