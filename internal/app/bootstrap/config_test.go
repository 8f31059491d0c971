package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/lumenlms/admission/internal/app/system/timeouts"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "lumen_admission",
		SessionKey:    "dev-only-change-me-please-0123456789ABCDEF",
		AuditLogMode:  "all",
	}
}

func TestValidateConfig(t *testing.T) {
	logger := zap.NewNop()
	core := &config.CoreConfig{Env: "dev"}

	if err := ValidateConfig(core, validAppConfig(), logger); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := validAppConfig()
	bad.MongoURI = ""
	if err := ValidateConfig(core, bad, logger); err == nil {
		t.Error("empty mongo URI accepted")
	}

	bad = validAppConfig()
	bad.AuditLogMode = "loudly"
	if err := ValidateConfig(core, bad, logger); err == nil {
		t.Error("bad audit_log_mode accepted")
	}
}

func TestValidateConfigRejectsNegativeTimeouts(t *testing.T) {
	logger := zap.NewNop()
	core := &config.CoreConfig{Env: "dev"}

	bad := validAppConfig()
	bad.TimeoutLongSeconds = -5
	if err := ValidateConfig(core, bad, logger); err == nil {
		t.Error("negative timeout accepted")
	}
}

func TestStartupAppliesTimeoutOverrides(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	logger := zap.NewNop()

	cfg := validAppConfig()
	cfg.TimeoutLongSeconds = 45
	cfg.TimeoutBatchSeconds = 120
	if err := Startup(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, DBDeps{}, logger); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	if got := timeouts.Long(); got != 45*time.Second {
		t.Errorf("long timeout = %v, want 45s", got)
	}
	if got := timeouts.Batch(); got != 120*time.Second {
		t.Errorf("batch timeout = %v, want 120s", got)
	}
	// Unset tiers keep their defaults.
	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("short timeout = %v, want default", got)
	}
}

func TestValidateConfigProdSessionKey(t *testing.T) {
	logger := zap.NewNop()
	prod := &config.CoreConfig{Env: "prod"}

	weak := validAppConfig()
	weak.SessionKey = "short"
	if err := ValidateConfig(prod, weak, logger); err == nil {
		t.Error("weak session key accepted in prod")
	}

	if err := ValidateConfig(prod, validAppConfig(), logger); err != nil {
		t.Errorf("strong session key rejected in prod: %v", err)
	}

	// Dev tolerates a weak key.
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, weak, logger); err != nil {
		t.Errorf("weak session key rejected in dev: %v", err)
	}
}
