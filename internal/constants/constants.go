package constants

// Context and session keys
const (
	ContextKeyUserID     = "user_id"
	ContextKeyUser       = "current_user"
	ContextKeyResourceID = "resource_id"
	SessionCookieName    = "taskflow_session"
)

// Pagination bounds for task listing
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// Pagination bounds for project listing (skip/limit style)
const (
	DefaultProjectLimit = 100
	MaxProjectLimit     = 100
)

// Authentication
const (
	MinPasswordLength = 8
	TokenType         = "bearer"
)

// AI task suggestions
const (
	MaxAIGeneratedTasks = 20
)
