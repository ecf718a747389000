package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

const (
	administratorsSelect = "a.id, a.name, a.username, a.password_hash, a.active, a.created, r.id AS role_id, r.role"
	administratorsFrom   = "administrators a LEFT JOIN administrator_roles ar ON a.id = ar.administrator_id LEFT JOIN roles r ON ar.role_id = r.id"
	administratorsOrder  = "a.name, r.level"
)

// AdministratorRepository defines methods for interacting with administrators and
// their roles
type AdministratorRepository interface {
	EntityMapper
	Select(ctx context.Context, where filter.Descriptor) ([]*models.Administrator, error)
	GetByID(ctx context.Context, id int64) (*models.Administrator, error)
	GetByUsername(ctx context.Context, username string) (*models.Administrator, error)
	Insert(ctx context.Context, input *models.AdministratorInput, passwordHash string) (int64, error)
	Update(ctx context.Context, id int64, input *models.AdministratorInput, passwordHash string) (*models.EntityChange, error)
	Delete(ctx context.Context, id, currentAdministratorID int64) (string, error)
}

// PostgresAdministratorRepository is a PostgreSQL implementation of AdministratorRepository
type PostgresAdministratorRepository struct {
	tableView
	db *database.Pool
}

// NewAdministratorRepository creates a new AdministratorRepository
func NewAdministratorRepository(db *database.Pool, registry *database.Registry) AdministratorRepository {
	return &PostgresAdministratorRepository{
		tableView: tableView{
			registry: registry,
			table:    constants.TableAdministrators,
			whitelist: filter.Whitelist{
				"id":       "a.id",
				"name":     "a.name",
				"username": "a.username",
				"active":   "a.active",
				"created":  "a.created",
				"role":     "r.role",
			},
		},
		db: db,
	}
}

// Select returns administrators matching where with their roles. Password hashes
// are cleared.
func (r *PostgresAdministratorRepository) Select(ctx context.Context, where filter.Descriptor) ([]*models.Administrator, error) {
	administrators, err := r.selectWith(ctx, where)
	if err != nil {
		return nil, err
	}
	for i, administrator := range administrators {
		administrators[i] = administrator.Sanitize()
	}
	return administrators, nil
}

func (r *PostgresAdministratorRepository) selectWith(ctx context.Context, where filter.Descriptor) ([]*models.Administrator, error) {
	records, err := database.NewSelectBuilder(administratorsSelect, administratorsFrom, where, administratorsOrder).Query(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("failed to select administrators: %w", err)
	}

	var administrators []*models.Administrator
	byID := make(map[int64]*models.Administrator)
	for _, record := range records {
		id := asInt64(record[constants.ColumnID])
		administrator, ok := byID[id]
		if !ok {
			administrator = &models.Administrator{
				ID:           id,
				Name:         asString(record[constants.ColumnName]),
				Username:     asString(record[constants.ColumnUsername]),
				PasswordHash: asString(record[constants.ColumnPasswordHash]),
				Active:       asBool(record[constants.ColumnActive]),
				Created:      asTime(record[constants.ColumnCreated]),
				Roles:        []models.RoleRef{},
			}
			byID[id] = administrator
			administrators = append(administrators, administrator)
		}
		if record[constants.ColumnRoleID] != nil {
			administrator.Roles = append(administrator.Roles, models.RoleRef{
				ID:   asInt64(record[constants.ColumnRoleID]),
				Role: asString(record[constants.ColumnRole]),
			})
		}
	}
	return administrators, nil
}

// GetByID retrieves an administrator, including the password hash
func (r *PostgresAdministratorRepository) GetByID(ctx context.Context, id int64) (*models.Administrator, error) {
	return r.getOne(ctx, "a.id", id)
}

// GetByUsername retrieves an administrator for login, including the password hash
func (r *PostgresAdministratorRepository) GetByUsername(ctx context.Context, username string) (*models.Administrator, error) {
	return r.getOne(ctx, "a.username", username)
}

func (r *PostgresAdministratorRepository) getOne(ctx context.Context, column string, value interface{}) (*models.Administrator, error) {
	where := filter.Descriptor{column: {Operators: []string{filter.OpEqual}, Values: []interface{}{value}}}
	administrators, err := r.selectWith(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(administrators) == 0 {
		return nil, utils.NewQueryResultsNotFound("administrators %s %v", column, value)
	}
	return administrators[0], nil
}

// Insert adds an administrator and their roles in one transaction
func (r *PostgresAdministratorRepository) Insert(ctx context.Context, input *models.AdministratorInput, passwordHash string) (int64, error) {
	if len(input.RoleIDs) == 0 {
		return 0, utils.NewValidationError("roles", "At least one role is required")
	}

	var administratorID int64
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		id, err := r.mapper().WithExecutor(tx).Insert(ctx, administratorColumns(input, passwordHash), true)
		if err != nil {
			return err
		}
		administratorID = asInt64(id)
		return r.addRoles(ctx, tx, administratorID, input.RoleIDs)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert administrator: %w", err)
	}

	log.Info().Int64("administrator_id", administratorID).Str("username", input.Username).Msg("Administrator created")
	return administratorID, nil
}

// Update writes the changed columns and reconciles roles in one transaction. A
// blank passwordHash leaves the password unchanged.
func (r *PostgresAdministratorRepository) Update(ctx context.Context, id int64, input *models.AdministratorInput, passwordHash string) (*models.EntityChange, error) {
	if len(input.RoleIDs) == 0 {
		return nil, utils.NewValidationError("roles", "At least one role is required")
	}

	change := &models.EntityChange{}
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		mapper := r.mapper().WithExecutor(tx)

		record, err := mapper.SelectForPrimaryKey(ctx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return utils.NewQueryResultsNotFound("administrators id %d", id)
		}

		current, err := roleIDsFor(ctx, tx, constants.TableAdministratorRoles, constants.ColumnAdministratorID, id)
		if err != nil {
			return err
		}

		change.Columns = mapper.ChangedColumnsValues(administratorColumns(input, passwordHash), record)
		change.Roles = models.NewRoleDelta(current, input.RoleIDs)
		if change.IsEmpty() {
			return nil
		}

		if len(change.Columns) > 0 {
			if _, err := mapper.UpdateByPrimaryKey(ctx, change.Columns, id, false, nil, false); err != nil {
				return err
			}
		}
		if err := r.addRoles(ctx, tx, id, change.Roles.Add); err != nil {
			return err
		}
		return removeRoles(ctx, tx, constants.TableAdministratorRoles, constants.ColumnAdministratorID, id, change.Roles.Remove)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update administrator: %w", err)
	}

	// the change ends up in event notes
	change.Columns = utils.SanitizeKeys(change.Columns)
	return change, nil
}

// Delete removes an administrator and their role assignments and returns the
// username. Administrators cannot delete themselves, and administrators that
// appear in system events are kept for the audit trail.
func (r *PostgresAdministratorRepository) Delete(ctx context.Context, id, currentAdministratorID int64) (string, error) {
	if id == currentAdministratorID {
		return "", utils.NewUnallowedActionError(fmt.Sprintf("Administrator cannot delete own account: id %d", id))
	}

	count, err := countRows(ctx, r.db, constants.TableSystemEvents, constants.ColumnAdministratorID, id)
	if err != nil {
		return "", fmt.Errorf("failed to check administrator events: %w", err)
	}
	if count > 0 {
		return "", utils.NewUnallowedActionError(fmt.Sprintf("Administrator has system events: id %d", id))
	}

	var username interface{}
	err = r.db.Transaction(ctx, func(tx *sql.Tx) error {
		qb := database.NewQueryBuilder("DELETE FROM administrator_roles WHERE administrator_id = ?", id)
		if _, err := qb.Execute(ctx, tx); err != nil {
			return err
		}

		var err error
		username, err = r.mapper().WithExecutor(tx).DeleteByPrimaryKey(ctx, id, constants.ColumnUsername)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete administrator: %w", err)
	}

	log.Info().Int64("administrator_id", id).Msg("Administrator deleted")
	return asString(username), nil
}

func (r *PostgresAdministratorRepository) addRoles(ctx context.Context, tx *sql.Tx, administratorID int64, roleIDs []int64) error {
	joins := r.registry.MustMapper(constants.TableAdministratorRoles).WithExecutor(tx)
	for _, roleID := range roleIDs {
		values := map[string]interface{}{
			constants.ColumnAdministratorID: administratorID,
			constants.ColumnRoleID:          roleID,
		}
		if _, err := joins.Insert(ctx, values, false); err != nil {
			return err
		}
	}
	return nil
}

func administratorColumns(input *models.AdministratorInput, passwordHash string) map[string]interface{} {
	columns := map[string]interface{}{
		constants.ColumnName:     input.Name,
		constants.ColumnUsername: input.Username,
		constants.ColumnActive:   input.Active,
	}
	if passwordHash != "" {
		columns[constants.ColumnPasswordHash] = passwordHash
	}
	return columns
}
