// internal/app/workflow/admission/service.go

// Package admission owns the institution-membership lifecycle: session
// bootstrap provisioning, join requests, admin review (approve / reject /
// transfer), direct assignment, and the backfill repair scan.
//
// Every operation fails closed: any ambiguity about the acting caller's
// permission or an entity's existence is a denial. Nothing here retries;
// retry and backoff belong to callers, which is safe because each write
// path is idempotent or compare-and-set guarded.
package admission

import (
	"github.com/lumenlms/admission/internal/app/store/directory"
	"github.com/lumenlms/admission/internal/app/system/auditlog"
	"github.com/lumenlms/admission/internal/app/workflow/claims"
	"go.uber.org/zap"
)

// Service is the membership state machine. Stateless; all shared mutable
// state lives behind the Directory.
type Service struct {
	dir       directory.Directory
	projector *claims.Projector
	audit     *auditlog.Logger
	log       *zap.Logger
}

func New(dir directory.Directory, projector *claims.Projector, audit *auditlog.Logger, log *zap.Logger) *Service {
	return &Service{
		dir:       dir,
		projector: projector,
		audit:     audit,
		log:       log,
	}
}
