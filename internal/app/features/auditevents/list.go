// internal/app/features/auditevents/list.go
package auditevents

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/policy/reviewpolicy"
	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
)

const pageSize = 50

// ServeList handles GET /audit - lists audit events with filtering.
//
// Query parameters: institution_id, actor_id, action, start_date,
// end_date (both YYYY-MM-DD), page. Institution admins must scope the
// query to an institution they administer; cross-institution queries are
// super-admin only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	institutionID := strings.TrimSpace(r.URL.Query().Get("institution_id"))

	if !reviewpolicy.CanViewAudit(r, institutionID) {
		apierrors.WriteForbidden(w)
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		InstitutionID: institutionID,
		ActorID:       strings.TrimSpace(r.URL.Query().Get("actor_id")),
		Action:        strings.TrimSpace(r.URL.Query().Get("action")),
		Limit:         pageSize,
		Offset:        int64((page - 1) * pageSize),
	}

	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err)
		return
	}

	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"events":      events,
		"total":       total,
		"page":        page,
		"total_pages": totalPages,
	})
}
