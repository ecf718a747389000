package constants

// System Event Types, ordered by severity. The ids match system_event_types rows.
const (
	EventTypeDebug     = "debug"
	EventTypeInfo      = "info"
	EventTypeNotice    = "notice"
	EventTypeWarning   = "warning"
	EventTypeError     = "error"
	EventTypeCritical  = "critical"
	EventTypeAlert     = "alert"
	EventTypeEmergency = "emergency"
)

// System Event Titles
const (
	EventLogin           = "Login"
	EventLogout          = "Logout"
	EventLoginFailed     = "Login Failure"
	EventLoginsExceeded  = "Maximum unsuccessful login attempts exceeded"
	EventLoginRequired   = "Login Required"
	EventNoAuthorization = "No authorization for resource"
	EventQueryFailure    = "Query Failure"
	EventQueryNotFound   = "Query Results Not Found"
	EventUnallowedAction = "Unallowed Action"
	EventDeletionFailure = "Deletion Failure"
	EventUnhandledError  = "Unhandled Error"
	EventPanic           = "Panic"
)

// Permission Resources are the titles of the permissions rows that guard routes.
const (
	ResourceViewSystemEvents     = "View System Events"
	ResourceViewLoginAttempts    = "View Login Attempts"
	ResourceViewAdministrators   = "View Administrators"
	ResourceInsertAdministrators = "Insert Administrators"
	ResourceUpdateAdministrators = "Update Administrators"
	ResourceDeleteAdministrators = "Delete Administrators"
	ResourceViewRoles            = "View Roles"
	ResourceInsertRoles          = "Insert Roles"
	ResourceUpdateRoles          = "Update Roles"
	ResourceDeleteRoles          = "Delete Roles"
	ResourceViewPermissions      = "View Permissions"
	ResourceInsertPermissions    = "Insert Permissions"
	ResourceUpdatePermissions    = "Update Permissions"
	ResourceDeletePermissions    = "Delete Permissions"
	ResourceViewTables           = "View Tables"
)
