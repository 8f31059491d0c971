// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/lumenlms/admission/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Mode controls where events go.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Mode string
}

// Logger provides convenience methods for emitting audit events.
// It tees to MongoDB (via audit.Store) and structured logs (via zap).
// Emission is fire-and-forget: a failed audit write is logged and never
// propagated, so a state transition is never rolled back over observability.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", event.Action),
		zap.String("severity", event.Severity),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.ActorRole != "" {
		fields = append(fields, zap.String("actor_role", event.ActorRole))
	}
	if event.InstitutionID != "" {
		fields = append(fields, zap.String("institution_id", event.InstitutionID))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", event.Resource))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Severity == audit.SeverityInfo || event.Severity == "" {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Emit records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Emit(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	mode := l.config.Mode
	if mode == "" {
		mode = "all"
	}
	if mode == "off" {
		return
	}

	if mode == "all" || mode == "log" {
		l.logToZap(event)
	}

	if mode == "all" || mode == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", event.Action),
			)
		}
	}
}
