// internal/app/features/institutions/manage.go
package institutions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/policy/reviewpolicy"
	"github.com/lumenlms/admission/internal/app/store/audit"
	institutionstore "github.com/lumenlms/admission/internal/app/store/institutions"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/normalize"
	"github.com/lumenlms/admission/internal/app/system/sanitize"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"github.com/lumenlms/admission/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// createRequest is the payload for POST /institutions.
type createRequest struct {
	Slug                string   `json:"slug" validate:"required,min=2,max=64"`
	Name                string   `json:"name" validate:"required,max=200"`
	Type                string   `json:"type" validate:"required,oneof=mother child_online child_offline"`
	ParentID            string   `json:"parent_id" validate:"required_unless=Type mother"`
	AllowedEmailDomains []string `json:"allowed_email_domains" validate:"dive,fqdn"`
	AllowExternalUsers  bool     `json:"allow_external_users"`
	ContactInfo         string   `json:"contact_info" validate:"max=2000"`
}

// HandleCreate provisions a new institution.
// POST /institutions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.ResolveCaller(r)
	if !reviewpolicy.CanManageInstitutions(r) {
		apierrors.WriteForbidden(w)
		return
	}

	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	domains := make([]string, 0, len(req.AllowedEmailDomains))
	for _, d := range req.AllowedEmailDomains {
		domains = append(domains, normalize.Domain(d))
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inst, err := h.Store.Create(ctx, models.Institution{
		ID:                  normalize.Slug(req.Slug),
		Name:                sanitize.Text(normalize.Name(req.Name)),
		Type:                req.Type,
		ParentID:            normalize.Slug(req.ParentID),
		AllowedEmailDomains: domains,
		AllowExternalUsers:  req.AllowExternalUsers,
		ContactInfo:         sanitize.Text(req.ContactInfo),
	})
	if err != nil {
		switch {
		case errors.Is(err, institutionstore.ErrDuplicateInstitution):
			apierrors.WriteBadRequest(w, "An institution with this slug already exists.")
		case errors.Is(err, institutionstore.ErrMotherExists):
			apierrors.WriteBadRequest(w, "An active mother institution already exists.")
		case errors.Is(err, institutionstore.ErrParentNotMother):
			apierrors.WriteBadRequest(w, "The parent must be an existing active mother institution.")
		default:
			h.ErrLog.LogBadRequest(w, r, "create institution failed", err, "Institution payload is invalid.")
		}
		return
	}

	h.emit(r, audit.ActionInstitutionCreated, caller.ID, caller.Role, inst.ID, map[string]string{
		"type": inst.Type,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"institution": inst})
}

// HandleDeactivate retires an institution. It stops matching in domain
// resolution and browsing; memberships stay readable.
// POST /institutions/{id}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.ResolveCaller(r)
	if !reviewpolicy.CanManageInstitutions(r) {
		apierrors.WriteForbidden(w)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Store.Deactivate(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.WriteNotFound(w, "Institution not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "deactivate institution failed", err)
		return
	}

	h.emit(r, audit.ActionInstitutionDisabled, caller.ID, caller.Role, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRotateInviteCode generates a fresh invite code for the institution
// and returns the plaintext exactly once; only the bcrypt hash is stored.
// POST /institutions/{id}/invite_code
func (h *Handler) HandleRotateInviteCode(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.ResolveCaller(r)
	if !reviewpolicy.CanManageInstitutions(r) {
		apierrors.WriteForbidden(w)
		return
	}
	id := chi.URLParam(r, "id")

	code := uuid.NewString()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Store.SetInviteCode(ctx, id, code); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.WriteNotFound(w, "Institution not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "rotate invite code failed", err)
		return
	}

	h.emit(r, audit.ActionInviteCodeRotated, caller.ID, caller.Role, id, nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"institution_id": id,
		"invite_code":    code,
	})
}
