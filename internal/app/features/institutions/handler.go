// internal/app/features/institutions/handler.go
package institutions

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/store/audit"
	institutionstore "github.com/lumenlms/admission/internal/app/store/institutions"
	"github.com/lumenlms/admission/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for institution provisioning
// and management.
type Handler struct {
	Store    *institutionstore.Store
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	validate *validator.Validate
}

// NewHandler constructs an institutions Handler.
func NewHandler(store *institutionstore.Store, errLog *apierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
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

// emit records an institution-management audit event.
func (h *Handler) emit(r *http.Request, action, actorID, actorRole, institutionID string, details map[string]string) {
	h.AuditLog.Emit(r.Context(), audit.Event{
		Action:        action,
		ActorID:       actorID,
		ActorRole:     actorRole,
		InstitutionID: institutionID,
		Resource:      "institution:" + institutionID,
		Severity:      audit.SeverityInfo,
		Details:       details,
	})
}
