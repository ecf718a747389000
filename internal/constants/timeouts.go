package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout  = 10 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
	DBConnMaxIdleTime    = 30 * time.Minute
)

// Session and breaker timings
const (
	DefaultSessionLifetime = 24 * time.Hour
	DefaultBreakerTimeout  = 30 * time.Second
	DefaultBreakerInterval = 60 * time.Second
	LoginLimiterCleanup    = 10 * time.Minute
)

// Audit fallback file maintenance
const (
	AuditFallbackRotation         = 24 * time.Hour
	DefaultEventFallbackRetention = 30 * 24 * time.Hour
)
