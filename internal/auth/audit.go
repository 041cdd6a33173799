package auth

// Audit action kinds written by the orchestrator. Values match the ones the
// previous backend stored, so existing audit reports keep working.
const (
	ActionLoginSuccess    = "LOGIN_SUCCESS"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionAccountLocked   = "ACCOUNT_LOCKED"
	ActionLogout          = "LOGOUT"
	ActionTokenRefresh    = "TOKEN_REFRESH"
	ActionTokenReuse      = "TOKEN_REUSE"
	ActionPasswordChanged = "PASSWORD_CHANGED"
	ActionPasswordReset   = "PASSWORD_RESET"
	ActionAdminCreated    = "ADMIN_CREATED"
	ActionStatusChanged   = "STATUS_CHANGED"
)
