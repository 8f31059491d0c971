// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	apierrorsfeature "github.com/lumenlms/admission/internal/app/features/apierrors"
	auditfeature "github.com/lumenlms/admission/internal/app/features/auditevents"
	authloginfeature "github.com/lumenlms/admission/internal/app/features/authlogin"
	healthfeature "github.com/lumenlms/admission/internal/app/features/health"
	institutionsfeature "github.com/lumenlms/admission/internal/app/features/institutions"
	membershipsfeature "github.com/lumenlms/admission/internal/app/features/memberships"
	sessionfeature "github.com/lumenlms/admission/internal/app/features/session"
	"github.com/lumenlms/admission/internal/app/store/audit"
	"github.com/lumenlms/admission/internal/app/store/directory"
	institutionstore "github.com/lumenlms/admission/internal/app/store/institutions"
	loginstore "github.com/lumenlms/admission/internal/app/store/logins"
	userstore "github.com/lumenlms/admission/internal/app/store/users"
	"github.com/lumenlms/admission/internal/app/system/auditlog"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"github.com/lumenlms/admission/internal/app/workflow/claims"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the directory, the admission
// workflow, the claims projector, and the audit logger, then mounts the
// feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role changes and home-institution claims take effect
	// immediately instead of at next login.
	auth.SetUserFetcher(userstore.NewFetcher(db))

	// Stores and workflow services.
	dir := directory.NewMongo(deps.MongoClient, db)
	auditStore := audit.New(db)
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{Mode: appCfg.AuditLogMode})
	projector := claims.NewProjector(dir, claims.NewMongoSink(db), logger)
	admissionSvc := admission.New(dir, projector, auditLogger, logger)

	logins := loginstore.New(db)
	errLog := apierrorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/health", healthHandler.Serve)

	// Authentication (public)
	loginHandler := authloginfeature.NewHandler(
		admissionSvc, logins,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.SessionKey, logger)
	r.Mount("/auth/google", authloginfeature.Routes(loginHandler))

	// Session surface
	sessionHandler := sessionfeature.NewHandler(admissionSvc, claims.NewMongoSink(db), logins, errLog, logger)
	r.Mount("/session", sessionfeature.Routes(sessionHandler))

	// Membership lifecycle
	membershipsHandler := membershipsfeature.NewHandler(admissionSvc, dir, errLog, logger)
	r.Mount("/memberships", membershipsfeature.Routes(membershipsHandler))

	// Institution provisioning and browsing
	instHandler := institutionsfeature.NewHandler(institutionstore.New(db), errLog, auditLogger, logger)
	r.Mount("/institutions", institutionsfeature.Routes(instHandler))

	// Audit trail
	auditHandler := auditfeature.NewHandler(auditStore, errLog, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler))

	return r, nil
}
