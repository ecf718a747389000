package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/it-all/slim-postgres/internal/constants"
)

// tableMigration builds a migration that runs statements in order
func tableMigration(table string, statements ...string) Migration {
	return Migration{
		Name:        fmt.Sprintf("create_%s_table", table),
		Description: fmt.Sprintf("Creates the %s table", table),
		TableName:   table,
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			for _, statement := range statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// createSystemEventTypesTable creates the severity lookup table. Ids are
// assigned by the seeder so they match models.EventType.
func createSystemEventTypesTable() Migration {
	return tableMigration(constants.TableSystemEventTypes, `
		CREATE TABLE IF NOT EXISTS system_event_types (
			id SMALLINT PRIMARY KEY,
			event_type VARCHAR(20) NOT NULL UNIQUE,
			description TEXT
		)
	`)
}

func createRolesTable() Migration {
	return tableMigration(constants.TableRoles, `
		CREATE TABLE IF NOT EXISTS roles (
			id SERIAL PRIMARY KEY,
			role VARCHAR(50) NOT NULL UNIQUE,
			level SMALLINT NOT NULL CHECK (level > 0),
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
}

func createAdministratorsTable() Migration {
	return tableMigration(constants.TableAdministrators, `
		CREATE TABLE IF NOT EXISTS administrators (
			id SERIAL PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			username VARCHAR(50) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
}

func createAdministratorRolesTable() Migration {
	return tableMigration(constants.TableAdministratorRoles, `
		CREATE TABLE IF NOT EXISTS administrator_roles (
			id SERIAL PRIMARY KEY,
			administrator_id INT NOT NULL REFERENCES administrators(id) ON DELETE CASCADE,
			role_id INT NOT NULL REFERENCES roles(id),
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT administrator_roles_pair UNIQUE (administrator_id, role_id)
		)
	`,
		`CREATE INDEX IF NOT EXISTS idx_administrator_roles_role_id ON administrator_roles(role_id)`,
	)
}

func createPermissionsTable() Migration {
	return tableMigration(constants.TablePermissions, `
		CREATE TABLE IF NOT EXISTS permissions (
			id SERIAL PRIMARY KEY,
			title VARCHAR(100) NOT NULL UNIQUE,
			description TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
}

func createRolesPermissionsTable() Migration {
	return tableMigration(constants.TableRolesPermissions, `
		CREATE TABLE IF NOT EXISTS roles_permissions (
			id SERIAL PRIMARY KEY,
			role_id INT NOT NULL REFERENCES roles(id),
			permission_id INT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT roles_permissions_pair UNIQUE (role_id, permission_id)
		)
	`,
		`CREATE INDEX IF NOT EXISTS idx_roles_permissions_permission_id ON roles_permissions(permission_id)`,
	)
}

// createSystemEventsTable creates the audit log. Administrators referenced by
// events cannot be deleted.
func createSystemEventsTable() Migration {
	return tableMigration(constants.TableSystemEvents, `
		CREATE TABLE IF NOT EXISTS system_events (
			id BIGSERIAL PRIMARY KEY,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			event_type SMALLINT NOT NULL REFERENCES system_event_types(id),
			title VARCHAR(255) NOT NULL,
			notes TEXT,
			administrator_id INT REFERENCES administrators(id),
			ip_address VARCHAR(45),
			resource VARCHAR(255),
			request_method VARCHAR(10)
		)
	`,
		`CREATE INDEX IF NOT EXISTS idx_system_events_created ON system_events(created)`,
		`CREATE INDEX IF NOT EXISTS idx_system_events_administrator_id ON system_events(administrator_id)`,
	)
}

func createLoginAttemptsTable() Migration {
	return tableMigration(constants.TableLoginAttempts, `
		CREATE TABLE IF NOT EXISTS login_attempts (
			id BIGSERIAL PRIMARY KEY,
			administrator_id INT REFERENCES administrators(id) ON DELETE SET NULL,
			username VARCHAR(50) NOT NULL,
			ip_address VARCHAR(45),
			success BOOLEAN NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`,
		`CREATE INDEX IF NOT EXISTS idx_login_attempts_created ON login_attempts(created)`,
	)
}
