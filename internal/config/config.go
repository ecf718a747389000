package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/it-all/slim-postgres/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App            AppSettings            `yaml:"app"`
	Database       DatabaseSettings       `yaml:"database"`
	Server         ServerSettings         `yaml:"server"`
	Logging        LoggingSettings        `yaml:"logging"`
	PasswordHash   HashSettings           `yaml:"password_hash"`
	Session        SessionSettings        `yaml:"session"`
	Authentication AuthenticationSettings `yaml:"authentication"`
	Authorization  AuthorizationSettings  `yaml:"authorization"`
	Errors         ErrorSettings          `yaml:"errors"`
	Email          EmailSettings          `yaml:"email"`
	Audit          AuditSettings          `yaml:"audit"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment      string `yaml:"environment" env:"APP_ENV"`
	Name             string `yaml:"name" env:"APP_NAME"`
	Version          string `yaml:"version" env:"APP_VERSION"`
	BusinessName     string `yaml:"business_name" env:"APP_BUSINESS_NAME"`
	TrimAllUserInput bool   `yaml:"trim_all_user_input" env:"APP_TRIM_INPUT"`
	PageNotFoundText string `yaml:"page_not_found_text" env:"APP_PAGE_NOT_FOUND_TEXT"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// HashSettings contains password hashing settings
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// SessionSettings contains the administrator session cookie settings
type SessionSettings struct {
	Lifetime   time.Duration `yaml:"lifetime" env:"SESSION_LIFETIME"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
}

// AuthenticationSettings contains login settings
type AuthenticationSettings struct {
	MaxFailedLogins int     `yaml:"max_failed_logins" env:"AUTH_MAX_FAILED_LOGINS"`
	LoginRatePerSec float64 `yaml:"login_rate_per_sec" env:"AUTH_LOGIN_RATE"`
	LoginBurst      int     `yaml:"login_burst" env:"AUTH_LOGIN_BURST"`
}

// AuthorizationSettings contains role settings used by permission checks
type AuthorizationSettings struct {
	TopRole     string `yaml:"top_role" env:"AUTHZ_TOP_ROLE"`
	DefaultRole string `yaml:"default_role" env:"AUTHZ_DEFAULT_ROLE"`
}

// ErrorSettings controls how unexpected errors are reported
type ErrorSettings struct {
	EmailTo       []string `yaml:"email_to" env:"ERRORS_EMAIL_TO"`
	FatalMessage  string   `yaml:"fatal_message" env:"ERRORS_FATAL_MESSAGE"`
	LogToDatabase bool     `yaml:"log_to_database" env:"ERRORS_LOG_TO_DATABASE"`
	EmailDev      bool     `yaml:"email_dev" env:"ERRORS_EMAIL_DEV"`
	EchoDev       bool     `yaml:"echo_dev" env:"ERRORS_ECHO_DEV"`
}

// EmailSettings contains the SendGrid mailer settings
type EmailSettings struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	FromAddress    string `yaml:"from_address" env:"EMAIL_FROM_ADDRESS"`
	FromName       string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
}

// AuditSettings configures the system event sink and its local fallback
type AuditSettings struct {
	FallbackPath      string        `yaml:"fallback_path" env:"AUDIT_FALLBACK_PATH"`
	FallbackRetention time.Duration `yaml:"fallback_retention" env:"AUDIT_FALLBACK_RETENTION"`
	MaxFailures       uint32        `yaml:"max_failures" env:"AUDIT_MAX_FAILURES"`
	HalfOpenMax       uint32        `yaml:"half_open_max" env:"AUDIT_HALF_OPEN_MAX"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout" env:"AUDIT_BREAKER_TIMEOUT"`
	BreakerInterval   time.Duration `yaml:"breaker_interval" env:"AUDIT_BREAKER_INTERVAL"`
}

// ConnectionString returns the lib/pq connection string
func (dbs *DatabaseSettings) ConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", dbs.Host),
		fmt.Sprintf("port=%d", dbs.Port),
		fmt.Sprintf("user=%s", dbs.User),
		fmt.Sprintf("dbname=%s", dbs.Name),
		fmt.Sprintf("sslmode=%s", dbs.SSLMode),
	}
	if dbs.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", dbs.Password))
	}
	return strings.Join(parts, " ")
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

// ShouldEmailErrors reports whether unexpected errors are emailed. Production always
// emails; other environments only when email_dev is set.
func (c *AppConfig) ShouldEmailErrors() bool {
	if len(c.Errors.EmailTo) == 0 {
		return false
	}
	return c.App.IsProduction() || c.Errors.EmailDev
}

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig(config)

	return config, nil
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = "slim-postgres"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Host == "" {
		config.Database.Host = "localhost"
	}
	if config.Database.Port == 0 {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = constants.DefaultDBSSLMode
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	// Password hash defaults, lower cost outside production
	if config.PasswordHash.Memory == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}

	if config.Session.Lifetime == 0 {
		config.Session.Lifetime = constants.DefaultSessionLifetime
	}
	if config.Session.CookieName == "" {
		config.Session.CookieName = constants.DefaultSessionCookieName
	}

	if config.Authentication.MaxFailedLogins == 0 {
		config.Authentication.MaxFailedLogins = constants.DefaultMaxFailedLogins
	}
	if config.Authentication.LoginRatePerSec == 0 {
		config.Authentication.LoginRatePerSec = constants.DefaultLoginRatePerSec
	}
	if config.Authentication.LoginBurst == 0 {
		config.Authentication.LoginBurst = constants.DefaultLoginBurst
	}

	if config.Authorization.TopRole == "" {
		config.Authorization.TopRole = constants.DefaultTopRole
	}
	if config.Authorization.DefaultRole == "" {
		config.Authorization.DefaultRole = constants.DefaultAdministratorRole
	}

	if config.Errors.FatalMessage == "" {
		config.Errors.FatalMessage = constants.DefaultFatalMessage
	}

	if config.Email.FromAddress == "" {
		config.Email.FromAddress = constants.DefaultEmailFromAddress
	}
	if config.Email.FromName == "" {
		config.Email.FromName = constants.DefaultEmailFromName
	}

	if config.Audit.FallbackPath == "" {
		config.Audit.FallbackPath = constants.DefaultEventFallbackPath
	}
	if config.Audit.FallbackRetention == 0 {
		config.Audit.FallbackRetention = constants.DefaultEventFallbackRetention
	}
	if config.Audit.MaxFailures == 0 {
		config.Audit.MaxFailures = constants.DefaultBreakerMaxFailures
	}
	if config.Audit.HalfOpenMax == 0 {
		config.Audit.HalfOpenMax = constants.DefaultBreakerHalfOpenMax
	}
	if config.Audit.BreakerTimeout == 0 {
		config.Audit.BreakerTimeout = constants.DefaultBreakerTimeout
	}
	if config.Audit.BreakerInterval == 0 {
		config.Audit.BreakerInterval = constants.DefaultBreakerInterval
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.Database.User == "" {
		return fmt.Errorf("database user must be set")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("database name must be set")
	}

	if config.App.IsProduction() && config.Email.SendGridAPIKey == "" && len(config.Errors.EmailTo) > 0 {
		return fmt.Errorf("sendgrid api key must be set when error emails are configured in production")
	}

	if config.Authentication.MaxFailedLogins < 1 {
		return fmt.Errorf("max failed logins must be positive: %d", config.Authentication.MaxFailedLogins)
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_host", config.Database.Host).
		Int("db_port", config.Database.Port).
		Str("db_name", config.Database.Name).
		Bool("db_password_set", config.Database.Password != "").
		Bool("sendgrid_key_set", config.Email.SendGridAPIKey != "").
		Str("log_level", config.Logging.Level).
		Str("top_role", config.Authorization.TopRole).
		Msg("Configuration loaded")
}
