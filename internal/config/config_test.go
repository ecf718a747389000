package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	configPath := "config_test.yaml"
	configContent := `
app:
  environment: testing
  name: TestApp
  version: 1.0.0
  trim_all_user_input: true
server:
  host: 127.0.0.1
  port: 8080
  read_timeout: 5s
  write_timeout: 10s
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
authorization:
  top_role: owner
errors:
  email_to:
    - owner@example.com
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	defer os.Remove(configPath)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Environment != "testing" {
		t.Errorf("Expected Environment = %s, got %s", "testing", cfg.App.Environment)
	}
	if cfg.App.Name != "TestApp" {
		t.Errorf("Expected Name = %s, got %s", "TestApp", cfg.App.Name)
	}
	if !cfg.App.TrimAllUserInput {
		t.Errorf("Expected TrimAllUserInput to be true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected Port = %d, got %d", 8080, cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected database Port = %d, got %d", 5432, cfg.Database.Port)
	}
	if len(cfg.Errors.EmailTo) != 1 || cfg.Errors.EmailTo[0] != "owner@example.com" {
		t.Errorf("Expected one error email recipient, got %v", cfg.Errors.EmailTo)
	}
	if cfg.Authentication.MaxFailedLogins != 5 {
		t.Errorf("Expected default MaxFailedLogins = 5, got %d", cfg.Authentication.MaxFailedLogins)
	}
}

func TestLoadWithInvalidPath(t *testing.T) {
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "slimpg")

	cfg, err := Load("non_existent_config.yaml")
	if err != nil {
		t.Fatalf("Load() with non-existent file should not error, got %v", err)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("Expected default Environment = %s, got %s", "development", cfg.App.Environment)
	}
	if cfg.Database.User != "admin" {
		t.Errorf("Expected DB user from env, got %s", cfg.Database.User)
	}
}

func TestLoadMissingDatabaseUser(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "slimpg")

	if _, err := Load("non_existent_config.yaml"); err == nil {
		t.Error("Expected error when database user is missing")
	}
}

func TestDatabaseSettings_ConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		settings DatabaseSettings
		expected string
	}{
		{
			name: "With password",
			settings: DatabaseSettings{
				Host: "localhost", Port: 5432, Name: "slimpg", User: "admin", Password: "secret", SSLMode: "disable",
			},
			expected: "host=localhost port=5432 user=admin dbname=slimpg sslmode=disable password=secret",
		},
		{
			name: "Without password",
			settings: DatabaseSettings{
				Host: "db", Port: 6543, Name: "slimpg", User: "admin", SSLMode: "require",
			},
			expected: "host=db port=6543 user=admin dbname=slimpg sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.ConnectionString(); got != tt.expected {
				t.Errorf("ConnectionString() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestServerSettings_ServerAddress(t *testing.T) {
	ss := ServerSettings{Host: "127.0.0.1", Port: 9000}
	if got := ss.ServerAddress(); got != "127.0.0.1:9000" {
		t.Errorf("ServerAddress() = %s, want 127.0.0.1:9000", got)
	}
}

func TestAppSettings_Environment(t *testing.T) {
	tests := []struct {
		env         string
		development bool
		production  bool
		testing     bool
	}{
		{"development", true, false, false},
		{"PRODUCTION", false, true, false},
		{"testing", false, false, true},
		{"staging", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			as := AppSettings{Environment: tt.env}
			if as.IsDevelopment() != tt.development {
				t.Errorf("IsDevelopment() = %v, want %v", as.IsDevelopment(), tt.development)
			}
			if as.IsProduction() != tt.production {
				t.Errorf("IsProduction() = %v, want %v", as.IsProduction(), tt.production)
			}
			if as.IsTesting() != tt.testing {
				t.Errorf("IsTesting() = %v, want %v", as.IsTesting(), tt.testing)
			}
		})
	}
}

func TestShouldEmailErrors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      AppConfig
		expected bool
	}{
		{"No recipients", AppConfig{App: AppSettings{Environment: "production"}}, false},
		{"Production always emails", AppConfig{App: AppSettings{Environment: "production"}, Errors: ErrorSettings{EmailTo: []string{"a@b.c"}}}, true},
		{"Dev without flag", AppConfig{App: AppSettings{Environment: "development"}, Errors: ErrorSettings{EmailTo: []string{"a@b.c"}}}, false},
		{"Dev with flag", AppConfig{App: AppSettings{Environment: "development"}, Errors: ErrorSettings{EmailTo: []string{"a@b.c"}, EmailDev: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ShouldEmailErrors(); got != tt.expected {
				t.Errorf("ShouldEmailErrors() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	config := &AppConfig{}
	setDefaults(config)

	if config.App.Environment != "development" {
		t.Errorf("Expected default Environment = development, got %s", config.App.Environment)
	}
	if config.Server.Port != 8080 {
		t.Errorf("Expected default Port = 8080, got %d", config.Server.Port)
	}
	if config.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Expected default ReadTimeout = 5s, got %v", config.Server.ReadTimeout)
	}
	if config.Database.Port != 5432 {
		t.Errorf("Expected default database Port = 5432, got %d", config.Database.Port)
	}
	if config.Database.SSLMode != "disable" {
		t.Errorf("Expected default SSLMode = disable, got %s", config.Database.SSLMode)
	}
	if config.PasswordHash.Memory != 16*1024 {
		t.Errorf("Expected development hash memory, got %d", config.PasswordHash.Memory)
	}
	if config.Session.Lifetime != 24*time.Hour {
		t.Errorf("Expected default session lifetime = 24h, got %v", config.Session.Lifetime)
	}
	if config.Authorization.TopRole != "owner" {
		t.Errorf("Expected default top role = owner, got %s", config.Authorization.TopRole)
	}
	if config.Authorization.DefaultRole != "user" {
		t.Errorf("Expected default role = user, got %s", config.Authorization.DefaultRole)
	}
	if config.Audit.MaxFailures != 3 {
		t.Errorf("Expected default breaker failures = 3, got %d", config.Audit.MaxFailures)
	}
	if config.Errors.FatalMessage == "" {
		t.Error("Expected default fatal message")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *AppConfig {
		c := &AppConfig{Database: DatabaseSettings{User: "admin", Name: "slimpg"}}
		setDefaults(c)
		return c
	}

	t.Run("Valid", func(t *testing.T) {
		if err := validateConfig(valid()); err != nil {
			t.Errorf("validateConfig() error = %v", err)
		}
	})

	t.Run("Invalid environment falls back", func(t *testing.T) {
		c := valid()
		c.App.Environment = "staging"
		if err := validateConfig(c); err != nil {
			t.Errorf("validateConfig() error = %v", err)
		}
		if c.App.Environment != "development" {
			t.Errorf("Expected environment to fall back to development, got %s", c.App.Environment)
		}
	})

	t.Run("Missing database name", func(t *testing.T) {
		c := valid()
		c.Database.Name = ""
		if err := validateConfig(c); err == nil {
			t.Error("Expected error for missing database name")
		}
	})

	t.Run("Invalid log level", func(t *testing.T) {
		c := valid()
		c.Logging.Level = "verbose"
		if err := validateConfig(c); err == nil {
			t.Error("Expected error for invalid log level")
		}
	})

	t.Run("Production error email without key", func(t *testing.T) {
		c := valid()
		c.App.Environment = "production"
		c.Errors.EmailTo = []string{"owner@example.com"}
		if err := validateConfig(c); err == nil {
			t.Error("Expected error for missing sendgrid key")
		}
	})
}
