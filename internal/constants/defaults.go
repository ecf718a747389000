package constants

// Server and logging defaults
const (
	DefaultServerPort       = 8080
	DefaultDBMaxConnections = 20
	DefaultDBMinConnections = 5
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "disable"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultConfigPath       = "configs/config.yaml"
)

// Application environments
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Request limits
const (
	MaxRequestBodySize = 1048576 // 1MB in bytes
)

// Password hashing defaults for argon2id.
const (
	DefaultPasswordHashMemory      = 64 * 1024
	DefaultPasswordHashIterations  = 3
	DefaultPasswordHashParallelism = 2
	DefaultPasswordHashSaltLength  = 16
	DefaultPasswordHashKeyLength   = 32

	DevPasswordHashMemory     = 16 * 1024
	DevPasswordHashIterations = 1
)

// Authentication and authorization defaults
const (
	DefaultMaxFailedLogins   = 5
	DefaultLoginRatePerSec   = 1.0
	DefaultLoginBurst        = 5
	LoginLimiterMaxKeys      = 10000
	DefaultTopRole           = "owner"
	DefaultAdministratorRole = "user"
	DefaultSessionCookieName = "slimpg_session"
)

// Error handling defaults
const (
	DefaultFatalMessage      = "Apologies, there has been an error on our site. We have been alerted and will correct it as soon as possible."
	DefaultEventFallbackPath = "./storage/logs/events.log"
	DefaultEmailFromAddress  = "service@example.com"
	DefaultEmailFromName     = "Site Administration"
)

// Audit sink circuit breaker defaults
const (
	DefaultBreakerMaxFailures = 3
	DefaultBreakerHalfOpenMax = 1
)
