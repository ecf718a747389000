// Package constants provides shared constant values used throughout the application.
//
// The routes_const.go file defines route names, URL paths and parameters. Route names
// are used for reverse lookup when redirecting and as the keys of the route
// authorization map.
package constants

// Base Paths
const (
	HomePath    = "/"
	HealthPath  = "/health"
	VersionPath = "/version"
	LoginPath   = "/login"
	AdminPath   = "/admin"
	RoutesPath  = "/routes"
)

// Route Names
const (
	RouteHome      = "home"
	RouteLogin     = "authentication.login"
	RouteLoginPost = "authentication.post.login"
	RouteAdminHome = "admin.home"
	RouteLogout    = "admin.logout"

	RouteSystemEvents      = "admin.systemEvents.index"
	RouteSystemEventsPost  = "admin.systemEvents.post.index"
	RouteSystemEventsReset = "admin.systemEvents.index.reset"

	RouteLoginAttempts      = "admin.logins.index"
	RouteLoginAttemptsPost  = "admin.logins.post.index"
	RouteLoginAttemptsReset = "admin.logins.index.reset"

	RouteAdministrators          = "admin.administrators.index"
	RouteAdministratorsPost      = "admin.administrators.post.index"
	RouteAdministratorsReset     = "admin.administrators.index.reset"
	RouteAdministratorsInsert    = "admin.administrators.post.insert"
	RouteAdministratorsUpdate    = "admin.administrators.update"
	RouteAdministratorsUpdatePut = "admin.administrators.put.update"
	RouteAdministratorsDelete    = "admin.administrators.delete"

	RouteRoles          = "admin.roles.index"
	RouteRolesPost      = "admin.roles.post.index"
	RouteRolesReset     = "admin.roles.index.reset"
	RouteRolesInsert    = "admin.roles.post.insert"
	RouteRolesUpdate    = "admin.roles.update"
	RouteRolesUpdatePut = "admin.roles.put.update"
	RouteRolesDelete    = "admin.roles.delete"

	RoutePermissions          = "admin.permissions.index"
	RoutePermissionsPost      = "admin.permissions.post.index"
	RoutePermissionsReset     = "admin.permissions.index.reset"
	RoutePermissionsInsert    = "admin.permissions.post.insert"
	RoutePermissionsUpdate    = "admin.permissions.update"
	RoutePermissionsUpdatePut = "admin.permissions.put.update"
	RoutePermissionsDelete    = "admin.permissions.delete"

	RouteTables = "admin.tables.index"
)

// URL Parameters
const (
	ParamID    = "id"
	ParamTable = "table"
)

// Form Fields
const (
	FieldFilter   = "filter"
	FieldUsername = "username"
	FieldPassword = "password"
)
