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
	permissionsSelect = "p.id, p.title, p.description, p.active, p.created, r.id AS role_id, r.role"
	permissionsFrom   = "permissions p LEFT JOIN roles_permissions rp ON p.id = rp.permission_id LEFT JOIN roles r ON rp.role_id = r.id"
	permissionsOrder  = "p.title, r.level"
)

// PermissionRepository defines methods for interacting with permissions and their
// role assignments
type PermissionRepository interface {
	EntityMapper
	Select(ctx context.Context, where filter.Descriptor) ([]*models.Permission, error)
	GetByID(ctx context.Context, id int64) (*models.Permission, error)
	GetByTitle(ctx context.Context, title string) (*models.Permission, error)
	Insert(ctx context.Context, input *models.PermissionInput) (int64, error)
	Update(ctx context.Context, id int64, input *models.PermissionInput) (*models.EntityChange, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// PostgresPermissionRepository is a PostgreSQL implementation of PermissionRepository
type PostgresPermissionRepository struct {
	tableView
	db *database.Pool
}

// NewPermissionRepository creates a new PermissionRepository
func NewPermissionRepository(db *database.Pool, registry *database.Registry) PermissionRepository {
	return &PostgresPermissionRepository{
		tableView: tableView{
			registry: registry,
			table:    constants.TablePermissions,
			whitelist: filter.Whitelist{
				"id":          "p.id",
				"title":       "p.title",
				"description": "p.description",
				"active":      "p.active",
				"created":     "p.created",
				"role":        "r.role",
			},
		},
		db: db,
	}
}

// Select returns permissions matching where with their roles
func (r *PostgresPermissionRepository) Select(ctx context.Context, where filter.Descriptor) ([]*models.Permission, error) {
	return r.selectWith(ctx, r.db, where)
}

func (r *PostgresPermissionRepository) selectWith(ctx context.Context, db database.Executor, where filter.Descriptor) ([]*models.Permission, error) {
	records, err := database.NewSelectBuilder(permissionsSelect, permissionsFrom, where, permissionsOrder).Query(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to select permissions: %w", err)
	}

	var permissions []*models.Permission
	byID := make(map[int64]*models.Permission)
	for _, record := range records {
		id := asInt64(record[constants.ColumnID])
		permission, ok := byID[id]
		if !ok {
			permission = &models.Permission{
				ID:          id,
				Title:       asString(record[constants.ColumnTitle]),
				Description: asStringPtr(record[constants.ColumnDescription]),
				Active:      asBool(record[constants.ColumnActive]),
				Created:     asTime(record[constants.ColumnCreated]),
				Roles:       []models.RoleRef{},
			}
			byID[id] = permission
			permissions = append(permissions, permission)
		}
		if record[constants.ColumnRoleID] != nil {
			permission.Roles = append(permission.Roles, models.RoleRef{
				ID:   asInt64(record[constants.ColumnRoleID]),
				Role: asString(record[constants.ColumnRole]),
			})
		}
	}
	return permissions, nil
}

// GetByID retrieves a permission with its roles
func (r *PostgresPermissionRepository) GetByID(ctx context.Context, id int64) (*models.Permission, error) {
	return r.getOne(ctx, "p.id", id)
}

// GetByTitle retrieves the permission guarding a resource
func (r *PostgresPermissionRepository) GetByTitle(ctx context.Context, title string) (*models.Permission, error) {
	return r.getOne(ctx, "p.title", title)
}

func (r *PostgresPermissionRepository) getOne(ctx context.Context, column string, value interface{}) (*models.Permission, error) {
	where := filter.Descriptor{column: {Operators: []string{filter.OpEqual}, Values: []interface{}{value}}}
	permissions, err := r.selectWith(ctx, r.db, where)
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return nil, utils.NewQueryResultsNotFound("permissions %s %v", column, value)
	}
	return permissions[0], nil
}

// Insert adds a permission and its role assignments in one transaction. A
// permission without roles is rejected before anything is written.
func (r *PostgresPermissionRepository) Insert(ctx context.Context, input *models.PermissionInput) (int64, error) {
	if len(input.RoleIDs) == 0 {
		return 0, utils.NewValidationError("roles", "At least one role is required")
	}

	var permissionID int64
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		id, err := r.mapper().WithExecutor(tx).Insert(ctx, input.Columns(), true)
		if err != nil {
			return err
		}
		permissionID = asInt64(id)
		return r.addRoles(ctx, tx, permissionID, input.RoleIDs)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert permission: %w", err)
	}

	log.Info().Int64("permission_id", permissionID).Str("title", input.Title).Msg("Permission created")
	return permissionID, nil
}

// Update writes the changed columns and reconciles role assignments as a delta in
// one transaction. An empty change means nothing was written.
func (r *PostgresPermissionRepository) Update(ctx context.Context, id int64, input *models.PermissionInput) (*models.EntityChange, error) {
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
			return utils.NewQueryResultsNotFound("permissions id %d", id)
		}

		current, err := roleIDsFor(ctx, tx, constants.TableRolesPermissions, constants.ColumnPermissionID, id)
		if err != nil {
			return err
		}

		change.Columns = mapper.ChangedColumnsValues(input.Columns(), record)
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
		return removeRoles(ctx, tx, constants.TableRolesPermissions, constants.ColumnPermissionID, id, change.Roles.Remove)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}
	return change, nil
}

// Delete removes a permission and its role assignments and returns its title
func (r *PostgresPermissionRepository) Delete(ctx context.Context, id int64) (string, error) {
	var title interface{}
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		qb := database.NewQueryBuilder("DELETE FROM roles_permissions WHERE permission_id = ?", id)
		if _, err := qb.Execute(ctx, tx); err != nil {
			return err
		}

		var err error
		title, err = r.mapper().WithExecutor(tx).DeleteByPrimaryKey(ctx, id, constants.ColumnTitle)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete permission: %w", err)
	}

	log.Info().Int64("permission_id", id).Msg("Permission deleted")
	return asString(title), nil
}

func (r *PostgresPermissionRepository) addRoles(ctx context.Context, tx *sql.Tx, permissionID int64, roleIDs []int64) error {
	joins := r.registry.MustMapper(constants.TableRolesPermissions).WithExecutor(tx)
	for _, roleID := range roleIDs {
		values := map[string]interface{}{
			constants.ColumnRoleID:       roleID,
			constants.ColumnPermissionID: permissionID,
		}
		if _, err := joins.Insert(ctx, values, false); err != nil {
			return err
		}
	}
	return nil
}

// roleIDsFor returns the role ids joined to ownerID in a role join table
func roleIDsFor(ctx context.Context, db database.Executor, table, ownerColumn string, ownerID int64) ([]int64, error) {
	qb := database.NewQueryBuilder(fmt.Sprintf("SELECT role_id FROM %s WHERE %s = ? ORDER BY role_id", table, ownerColumn), ownerID)
	records, err := qb.Query(ctx, db)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, asInt64(record[constants.ColumnRoleID]))
	}
	return ids, nil
}

func removeRoles(ctx context.Context, db database.Executor, table, ownerColumn string, ownerID int64, roleIDs []int64) error {
	for _, roleID := range roleIDs {
		qb := database.NewQueryBuilder(fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND role_id = ?", table, ownerColumn), ownerID, roleID)
		if _, err := qb.Execute(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
