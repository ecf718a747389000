package constants

// Session Keys are the keys stored in the administrator's session.
const (
	SessionKeyAdministratorID = "administrator_id"
	SessionKeyNotice          = "admin_notice"
	SessionKeyGotoPath        = "goto_admin_path"
	SessionKeyFailedLogins    = "failed_logins"
	SessionKeyFilterPrefix    = "filter."
	SessionKeyFilterValue     = ".value"
	SessionKeyFilterColumns   = ".columns"
)

// Context Keys used for request-scoped values and log fields.
const (
	RequestIDContextKey       = "request_id"
	AdministratorIDContextKey = "administrator_id"
	UsernameContextKey        = "username"
)

// Notice statuses shown with flash notices.
const (
	NoticeSuccess = "adminNoticeSuccess"
	NoticeFailure = "adminNoticeFailure"
)
