// Package scripts seeds the data the back office needs before anyone can log in.
//
// Seeds are tracked in the seeds table like migrations so each one runs once.
// Every insert is also conflict-safe, so a seed recorded by hand can be re-run.
package scripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/auth"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/service"
)

// Environment variables of the top administrator seed
const (
	EnvAdminName     = "ADMIN_NAME"
	EnvAdminUsername = "ADMIN_USERNAME"
	EnvAdminPassword = "ADMIN_PASSWORD"
)

// RoleSeed is a role with its level
type RoleSeed struct {
	Role  string
	Level int
}

// DefaultRoles are the roles of a new installation, most privileged first
func DefaultRoles() []RoleSeed {
	return []RoleSeed{
		{constants.DefaultTopRole, 1},
		{"director", 2},
		{"manager", 3},
		{"bookkeeper", 4},
		{constants.DefaultAdministratorRole, 5},
	}
}

// PermissionTitles returns every permission a route requires, sorted
func PermissionTitles() []string {
	seen := make(map[string]bool)
	var titles []string
	for _, title := range service.DefaultRoutePermissions() {
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	return titles
}

// AdministratorSeed is the first administrator, holding the top role
type AdministratorSeed struct {
	Name     string
	Username string
	Password string
}

// AdministratorFromEnv reads the top administrator from the environment. The
// name defaults to the username.
func AdministratorFromEnv() AdministratorSeed {
	seed := AdministratorSeed{
		Name:     strings.TrimSpace(os.Getenv(EnvAdminName)),
		Username: strings.TrimSpace(os.Getenv(EnvAdminUsername)),
		Password: os.Getenv(EnvAdminPassword),
	}
	if seed.Name == "" {
		seed.Name = seed.Username
	}
	return seed
}

func (a AdministratorSeed) isSet() bool {
	return a.Username != "" && a.Password != ""
}

// Seeder handles database seeding.
type Seeder struct {
	db            *database.Pool
	passwordCfg   *auth.PasswordConfig
	topRole       string
	administrator AdministratorSeed
}

// NewSeeder creates a new seeder. The top administrator is only seeded when
// administrator has both a username and a password.
func NewSeeder(db *database.Pool, passwordCfg *auth.PasswordConfig, topRole string, administrator AdministratorSeed) *Seeder {
	if topRole == "" {
		topRole = constants.DefaultTopRole
	}
	if passwordCfg == nil {
		passwordCfg = auth.DefaultPasswordConfig()
	}
	return &Seeder{
		db:            db,
		passwordCfg:   passwordCfg,
		topRole:       topRole,
		administrator: administrator,
	}
}

type seed struct {
	name string
	run  func(ctx context.Context, tx *sql.Tx) error
}

func (s *Seeder) seeds() []seed {
	seeds := []seed{
		{"system_event_types", s.seedEventTypes},
		{"roles", s.seedRoles},
		{"permissions", s.seedPermissions},
	}
	if s.administrator.isSet() {
		seeds = append(seeds, seed{"top_administrator", s.seedAdministrator})
	}
	return seeds
}

// SeedDatabase runs every seed that has not run yet.
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := time.Now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executedSeeds, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	for _, seed := range s.seeds() {
		if executedSeeds[seed.name] {
			log.Debug().Str("seed", seed.name).Msg("Seed already executed")
			continue
		}
		log.Info().Str("seed", seed.name).Msg("Running seed")
		if err := s.runSeed(ctx, seed.name, seed.run); err != nil {
			return err
		}
	}

	if !s.administrator.isSet() && !executedSeeds["top_administrator"] {
		log.Warn().Msgf("%s and %s are not set, no administrator seeded", EnvAdminUsername, EnvAdminPassword)
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database seeding completed")

	return nil
}

func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS seeds (
			name VARCHAR(255) PRIMARY KEY,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM seeds`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	seeds := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		seeds[name] = true
	}

	return seeds, rows.Err()
}

// runSeed runs a seed and records it within one transaction.
func (s *Seeder) runSeed(ctx context.Context, name string, seedFunc func(ctx context.Context, tx *sql.Tx) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := seedFunc(ctx, tx); err != nil {
			return fmt.Errorf("seed %s failed: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO seeds (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("failed to record seed: %w", err)
		}

		return nil
	})
}

// seedEventTypes inserts the severities with ids matching models.EventType
func (s *Seeder) seedEventTypes(ctx context.Context, tx *sql.Tx) error {
	query := `INSERT INTO system_event_types (id, event_type, description) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
	for _, eventType := range models.EventTypes() {
		description := fmt.Sprintf("%s level event", eventType.String())
		if _, err := tx.ExecContext(ctx, query, int64(eventType), eventType.String(), description); err != nil {
			return fmt.Errorf("failed to insert event type %s: %w", eventType, err)
		}
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context, tx *sql.Tx) error {
	query := `INSERT INTO roles (role, level) VALUES ($1, $2) ON CONFLICT (role) DO NOTHING`
	for _, role := range DefaultRoles() {
		if _, err := tx.ExecContext(ctx, query, role.Role, role.Level); err != nil {
			return fmt.Errorf("failed to insert role %s: %w", role.Role, err)
		}
	}
	return nil
}

// seedPermissions inserts the route permissions and assigns each to the top role.
// Every permission needs at least one role.
func (s *Seeder) seedPermissions(ctx context.Context, tx *sql.Tx) error {
	insertPermission := `INSERT INTO permissions (title) VALUES ($1) ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title RETURNING id`
	assignRole := `INSERT INTO roles_permissions (role_id, permission_id) SELECT id, $1 FROM roles WHERE role = $2 ON CONFLICT DO NOTHING`

	for _, title := range PermissionTitles() {
		var id int64
		if err := tx.QueryRowContext(ctx, insertPermission, title).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert permission %s: %w", title, err)
		}
		if _, err := tx.ExecContext(ctx, assignRole, id, s.topRole); err != nil {
			return fmt.Errorf("failed to assign permission %s: %w", title, err)
		}
	}
	return nil
}

// seedAdministrator inserts the top administrator unless the username is taken
func (s *Seeder) seedAdministrator(ctx context.Context, tx *sql.Tx) error {
	hash, err := auth.HashPassword(s.administrator.Password, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("failed to hash administrator password: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO administrators (name, username, password_hash) VALUES ($1, $2, $3) ON CONFLICT (username) DO NOTHING RETURNING id`,
		s.administrator.Name, s.administrator.Username, hash,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info().Str("username", s.administrator.Username).Msg("Administrator already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert administrator: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO administrator_roles (administrator_id, role_id) SELECT $1, id FROM roles WHERE role = $2`,
		id, s.topRole,
	)
	if err != nil {
		return fmt.Errorf("failed to assign administrator role: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("top role %s does not exist", s.topRole)
	}

	log.Info().Int64("administrator_id", id).Str("username", s.administrator.Username).Msg("Top administrator seeded")
	return nil
}
