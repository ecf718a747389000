package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

// RoleRepository defines methods for interacting with roles
type RoleRepository interface {
	EntityMapper
	Select(ctx context.Context, where filter.Descriptor) ([]*models.Role, error)
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetIDByRole(ctx context.Context, role string) (int64, error)
	Insert(ctx context.Context, input *models.RoleInput) (int64, error)
	Update(ctx context.Context, id int64, input *models.RoleInput) (map[string]interface{}, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// PostgresRoleRepository is a PostgreSQL implementation of RoleRepository
type PostgresRoleRepository struct {
	tableView
	db *database.Pool
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *database.Pool, registry *database.Registry) RoleRepository {
	return &PostgresRoleRepository{
		tableView: tableView{registry: registry, table: constants.TableRoles},
		db:        db,
	}
}

// Select returns roles matching where, ordered by level
func (r *PostgresRoleRepository) Select(ctx context.Context, where filter.Descriptor) ([]*models.Role, error) {
	records, err := r.mapper().Select(ctx, "id, role, level, created", where)
	if err != nil {
		return nil, fmt.Errorf("failed to select roles: %w", err)
	}

	roles := make([]*models.Role, 0, len(records))
	for _, record := range records {
		roles = append(roles, roleFromRecord(record))
	}
	return roles, nil
}

// GetByID retrieves a role by ID
func (r *PostgresRoleRepository) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	record, err := r.mapper().SelectForPrimaryKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get role by ID: %w", err)
	}
	if record == nil {
		return nil, utils.NewQueryResultsNotFound("roles id %d", id)
	}
	return roleFromRecord(record), nil
}

// GetIDByRole returns the id of the named role
func (r *PostgresRoleRepository) GetIDByRole(ctx context.Context, role string) (int64, error) {
	id, err := database.NewQueryBuilder("SELECT id FROM roles WHERE role = ?", role).GetOne(ctx, r.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get role id: %w", err)
	}
	if id == nil {
		return 0, utils.NewQueryResultsNotFound("roles role %s", role)
	}
	return asInt64(id), nil
}

// Insert adds a role and returns its id
func (r *PostgresRoleRepository) Insert(ctx context.Context, input *models.RoleInput) (int64, error) {
	id, err := r.mapper().Insert(ctx, input.Columns(), false)
	if err != nil {
		return 0, fmt.Errorf("failed to insert role: %w", err)
	}

	log.Info().Int64("role_id", asInt64(id)).Str("role", input.Role).Msg("Role created")
	return asInt64(id), nil
}

// Update writes the changed columns of input and returns them. An empty result
// means nothing changed.
func (r *PostgresRoleRepository) Update(ctx context.Context, id int64, input *models.RoleInput) (map[string]interface{}, error) {
	changed, err := r.mapper().UpdateByPrimaryKey(ctx, input.Columns(), id, true, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return changed, nil
}

// Delete removes a role that no administrator or permission uses and returns
// its name.
func (r *PostgresRoleRepository) Delete(ctx context.Context, id int64) (string, error) {
	for _, table := range []string{constants.TableAdministratorRoles, constants.TableRolesPermissions} {
		count, err := countRows(ctx, r.db, table, constants.ColumnRoleID, id)
		if err != nil {
			return "", fmt.Errorf("failed to check role usage: %w", err)
		}
		if count > 0 {
			return "", utils.NewUnallowedActionError(fmt.Sprintf("Role in use: id %d", id))
		}
	}

	role, err := r.mapper().DeleteByPrimaryKey(ctx, id, constants.ColumnRole)
	if err != nil {
		return "", fmt.Errorf("failed to delete role: %w", err)
	}

	log.Info().Int64("role_id", id).Msg("Role deleted")
	return asString(role), nil
}

func roleFromRecord(record database.Record) *models.Role {
	return &models.Role{
		ID:      asInt64(record[constants.ColumnID]),
		Role:    asString(record[constants.ColumnRole]),
		Level:   int(asInt64(record[constants.ColumnLevel])),
		Created: asTime(record[constants.ColumnCreated]),
	}
}
