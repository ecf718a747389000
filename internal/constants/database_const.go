// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table and column names used in SQL statements.
package constants

// Database Tables
const (
	TableRoles              = "roles"
	TablePermissions        = "permissions"
	TableRolesPermissions   = "roles_permissions"
	TableAdministrators     = "administrators"
	TableAdministratorRoles = "administrator_roles"
	TableSystemEvents       = "system_events"
	TableSystemEventTypes   = "system_event_types"
	TableLoginAttempts      = "login_attempts"
	TableMigrations         = "migrations"
	TableSeeds              = "seeds"
)

// Database Columns
const (
	ColumnID              = "id"
	ColumnCreated         = "created"
	ColumnRole            = "role"
	ColumnRoleID          = "role_id"
	ColumnLevel           = "level"
	ColumnTitle           = "title"
	ColumnDescription     = "description"
	ColumnActive          = "active"
	ColumnPermissionID    = "permission_id"
	ColumnName            = "name"
	ColumnUsername        = "username"
	ColumnPasswordHash    = "password_hash"
	ColumnAdministratorID = "administrator_id"
	ColumnEventType       = "event_type"
	ColumnNotes           = "notes"
	ColumnIPAddress       = "ip_address"
	ColumnResource        = "resource"
	ColumnRequestMethod   = "request_method"
	ColumnSuccess         = "success"
)

// Schema Names
const (
	SchemaInformation = "information_schema"
	SchemaPublic      = "public"
)
