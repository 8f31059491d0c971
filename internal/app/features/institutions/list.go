// internal/app/features/institutions/list.go
package institutions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList returns the active institutions a signed-in user can browse
// when looking for one to join.
// GET /institutions
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	insts, err := h.Store.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list active institutions failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"institutions": insts})
}

// ServeView returns a single institution by slug.
// GET /institutions/{id}
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inst, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.WriteNotFound(w, "Institution not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load institution failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"institution": inst})
}
