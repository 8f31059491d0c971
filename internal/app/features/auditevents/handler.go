// internal/app/features/auditevents/handler.go
package auditevents

import (
	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the audit trail query surface.
type Handler struct {
	Store  *audit.Store
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs an audit events Handler bound to the audit store
// and logger.
func NewHandler(store *audit.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		ErrLog: errLog,
		Log:    logger,
	}
}
