// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports and TLS, logging level and format, CORS, and request limits.
// AppConfig is where everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth callbacks (e.g., "https://lumen.example.edu")
	BaseURL string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging mode: "all" (db+log), "db", "log", or "off"
	AuditLogMode string

	// Store operation timeout overrides in seconds, applied at startup.
	// Zero keeps the built-in default for that tier.
	TimeoutShortSeconds  int
	TimeoutMediumSeconds int
	TimeoutLongSeconds   int
	TimeoutBatchSeconds  int
}
