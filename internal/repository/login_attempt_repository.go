package repository

import (
	"context"
	"fmt"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
)

const (
	loginAttemptsSelect = "la.id, la.administrator_id, la.username, la.ip_address, la.success, la.created, a.name"
	loginAttemptsFrom   = "login_attempts la LEFT OUTER JOIN administrators a ON la.administrator_id = a.id"
	loginAttemptsOrder  = "la.created DESC"
)

// LoginAttemptRepository records login form submissions
type LoginAttemptRepository interface {
	EntityMapper
	Select(ctx context.Context, where filter.Descriptor) ([]*models.LoginAttempt, error)
	Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
}

// PostgresLoginAttemptRepository is a PostgreSQL implementation of LoginAttemptRepository
type PostgresLoginAttemptRepository struct {
	tableView
	db database.Executor
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db database.Executor, registry *database.Registry) LoginAttemptRepository {
	return &PostgresLoginAttemptRepository{
		tableView: tableView{
			registry: registry,
			table:    constants.TableLoginAttempts,
			whitelist: filter.Whitelist{
				"id":            "la.id",
				"username":      "la.username",
				"administrator": "a.name",
				"ip_address":    "la.ip_address",
				"success":       "la.success",
				"created":       "la.created",
			},
		},
		db: db,
	}
}

// Select returns attempts matching where, newest first
func (r *PostgresLoginAttemptRepository) Select(ctx context.Context, where filter.Descriptor) ([]*models.LoginAttempt, error) {
	records, err := database.NewSelectBuilder(loginAttemptsSelect, loginAttemptsFrom, where, loginAttemptsOrder).Query(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("failed to select login attempts: %w", err)
	}

	attempts := make([]*models.LoginAttempt, 0, len(records))
	for _, record := range records {
		attempts = append(attempts, &models.LoginAttempt{
			ID:                asInt64(record[constants.ColumnID]),
			AdministratorID:   asInt64(record[constants.ColumnAdministratorID]),
			AdministratorName: asString(record[constants.ColumnName]),
			Username:          asString(record[constants.ColumnUsername]),
			IPAddress:         asString(record[constants.ColumnIPAddress]),
			Success:           asBool(record[constants.ColumnSuccess]),
			Created:           asTime(record[constants.ColumnCreated]),
		})
	}
	return attempts, nil
}

// Insert records an attempt. Unknown usernames are stored without an administrator id.
func (r *PostgresLoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	var administratorID interface{}
	if attempt.AdministratorID > 0 {
		administratorID = attempt.AdministratorID
	}

	values := map[string]interface{}{
		constants.ColumnAdministratorID: administratorID,
		constants.ColumnUsername:        attempt.Username,
		constants.ColumnIPAddress:       attempt.IPAddress,
		constants.ColumnSuccess:         attempt.Success,
	}

	id, err := r.mapper().WithExecutor(r.db).Insert(ctx, values, false)
	if err != nil {
		return 0, fmt.Errorf("failed to insert login attempt: %w", err)
	}
	return asInt64(id), nil
}
