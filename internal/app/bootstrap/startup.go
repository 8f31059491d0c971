// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/lumenlms/admission/internal/app/system/auth"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Zero values keep the per-tier defaults.
	timeouts.Configure(timeouts.Config{
		Short:  time.Duration(appCfg.TimeoutShortSeconds) * time.Second,
		Medium: time.Duration(appCfg.TimeoutMediumSeconds) * time.Second,
		Long:   time.Duration(appCfg.TimeoutLongSeconds) * time.Second,
		Batch:  time.Duration(appCfg.TimeoutBatchSeconds) * time.Second,
	})

	secure := coreCfg.Env == "prod"
	return auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger)
}
