// Package migrations creates the back office schema.
//
// Each migration creates one table and is recorded in the migrations table so it
// runs exactly once. A table that already exists without a record (for example one
// created by hand) is recorded as migrated without running its SQL. Migrations are
// listed in dependency order: referenced tables come first.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/database"
)

// Migration represents a database migration.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table created by this migration, used for existence checks
	TableName string
	// RunSQL executes the migration SQL within a transaction
	RunSQL func(ctx context.Context, tx *sql.Tx) error
}

// Migrator handles database migrations.
type Migrator struct {
	db         *database.Pool
	migrations []Migration
}

// NewMigrator creates a migrator for the back office schema.
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
	}
}

// RunMigrations runs all pending migrations in order.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Msg("Running database migrations")
	startTime := time.Now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	executed, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrationsRun, migrationsRecorded := 0, 0
	for _, migration := range m.migrations {
		if executed[migration.Name] {
			continue
		}

		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		if exists {
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")

			if err := m.recordMigration(ctx, migration.Name, migration.Description); err != nil {
				return err
			}
			migrationsRecorded++
			continue
		}

		log.Info().
			Str("migration", migration.Name).
			Str("table", migration.TableName).
			Msg("Running migration")

		if err := m.runMigration(ctx, migration); err != nil {
			return err
		}
		migrationsRun++
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("migrations_recorded", migrationsRecorded).
		Int("total_migrations", len(m.migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

// createMigrationsTable creates the table that tracks executed migrations.
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns the names of executed migrations.
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM migrations`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	migrations := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		migrations[name] = true
	}

	return migrations, rows.Err()
}

// runMigration runs a migration and records it within one transaction.
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := migration.RunSQL(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO migrations (name, description) VALUES ($1, $2)`, migration.Name, migration.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}

		return nil
	})
}

// recordMigration records a migration as completed without running the SQL.
func (m *Migrator) recordMigration(ctx context.Context, name, description string) error {
	_, err := m.db.ExecContext(ctx, `INSERT INTO migrations (name, description) VALUES ($1, $2)`, name, description)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the current schema.
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_name = $1)
	`
	var exists bool
	err := m.db.QueryRowContext(ctx, query, tableName).Scan(&exists)
	return exists, err
}

// GetMigrations returns all migrations in dependency order.
func GetMigrations() []Migration {
	return []Migration{
		createSystemEventTypesTable(),
		createRolesTable(),
		createAdministratorsTable(),
		createAdministratorRolesTable(),
		createPermissionsTable(),
		createRolesPermissionsTable(),
		createSystemEventsTable(),
		createLoginAttemptsTable(),
	}
}
