// internal/app/features/memberships/handler.go
package memberships

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the memberships feature:
// join requests, member-facing listing, the admin review queue, decisions,
// direct assignment, and backfill.
type Handler struct {
	Admission *admission.Service
	Dir       directory.Directory
	ErrLog    *apierrors.ErrorLogger
	Log       *zap.Logger

	validate *validator.Validate
}

// NewHandler constructs a memberships Handler. It is typically called from
// the bootstrap BuildHandler function.
func NewHandler(svc *admission.Service, dir directory.Directory, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Admission: svc,
		Dir:       dir,
		ErrLog:    errLog,
		Log:       logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decode reads and validates a JSON payload into dst. A false return means
// the error response has already been written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode payload failed", err, "Request body must be valid JSON.")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		apierrors.WriteBadRequest(w, "Request payload failed validation: "+err.Error())
		return false
	}
	return true
}
