// internal/app/features/session/handler.go
package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenlms/admission/internal/app/features/apierrors"
	loginstore "github.com/lumenlms/admission/internal/app/store/logins"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/app/system/authz"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"github.com/lumenlms/admission/internal/app/workflow/claims"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own session surface: who they are,
// their current claims, their recent logins, and an explicit re-run of
// the login-time self-heal.
type Handler struct {
	Admission *admission.Service
	Claims    claims.Sink
	Logins    *loginstore.Store
	ErrLog    *apierrors.ErrorLogger
	Log       *zap.Logger
}

// NewHandler constructs a session Handler.
func NewHandler(svc *admission.Service, sink claims.Sink, logins *loginstore.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Admission: svc,
		Claims:    sink,
		Logins:    logins,
		ErrLog:    errLog,
		Log:       logger,
	}
}

// meResponse is the JSON body for GET /session/me.
type meResponse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Role          string        `json:"role"`
	InstitutionID string        `json:"institution_id"`
	IsExternal    bool          `json:"is_external"`
	Claims        *claims.Claims `json:"claims,omitempty"`
}

// ServeMe returns the current user's identity and projected claims.
// GET /session/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}
	u, _ := auth.CurrentUser(r)

	resp := meResponse{
		ID:            caller.ID,
		Name:          u.Name,
		Email:         caller.Email,
		Role:          caller.Role,
		InstitutionID: caller.InstitutionID,
		IsExternal:    caller.IsExternal,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if c, ok, err := h.Claims.Current(ctx, caller.ID); err != nil {
		h.Log.Warn("read projected claims failed", zap.Error(err), zap.String("user_id", caller.ID))
	} else if ok {
		resp.Claims = &c
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleBootstrap re-runs the login-time provisioning and self-heal for
// the current user. The operation is idempotent, so clients may call it
// after a suspected partial failure without risk.
// POST /session/bootstrap
func (h *Handler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Admission.Bootstrap(ctx, admission.Principal{
		ID:    caller.ID,
		Email: caller.Email,
		Name:  u.Name,
	})
	if err != nil {
		h.ErrLog.LogWorkflowError(w, r, "session bootstrap failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user":               res.User,
		"created":            res.Created,
		"memberships_healed": res.Healed,
	})
}

// ServeLogins returns the current user's recent login records.
// GET /session/logins
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.ResolveCaller(r)
	if !ok {
		apierrors.WriteUnauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	recs, err := h.Logins.RecentByUser(ctx, caller.ID, 20)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list recent logins failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"logins": recs})
}

// HandleLogout clears the session.
// POST /session/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.ErrLog.LogServerError(w, r, "sign out failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
