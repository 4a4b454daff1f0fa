package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// Response messages returned to API clients inside ResponseBase.
const (
	// Required fields
	MsgEmailRequired    = "Email is required"
	MsgIDRequired       = "ID is required"
	MsgUserIDRequired   = "User ID is required"
	MsgIDRequiredLower  = "id is required"
	MsgRoleNameRequired = "Role name is required"

	// Info
	MsgUserRegistered    = "User registered, please check email for confirmation"
	MsgResendEmail       = "Resend confirmation email sent"
	MsgUserLoggedIn      = "User logged in"
	MsgUserLoggedOut     = "User logged out"
	MsgEmailVerified     = "Email verified"
	MsgResetEmailSent    = "Reset password email sent"
	MsgPasswordReset     = "User password reset, please check email"
	MsgUserUpdated       = "User updated"
	MsgUserDeleted       = "User deleted"
	MsgTwoFactorEnabled  = "Two factor enabled"
	MsgRoleCreated       = "Role created"
	MsgRoleDeleted       = "Role deleted"
	MsgRoleAddedToUser   = "Role added to user"
	MsgRoleRemoved       = "Role removed"
	MsgPostCreated       = "Post created"
	MsgPostUpdated       = "Post updated"
	MsgPostDeleted       = "Post deleted"

	// Errors
	MsgBadRequest          = "Bad request"
	MsgInvalidEmail        = "Invaild email"
	MsgDataRecheck         = "Please recheck input data"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUserNotFound        = "User not found"
	MsgUserNotVerified     = "User not verified"
	MsgRoleExists          = "Role already exists"
	MsgRoleNotFound        = "Role not found"
	MsgPostNotFound        = "Post not found"
	MsgUnauthorized        = "Unauthorized"
	MsgForbidden           = "Forbidden"
	MsgNotFound            = "Not found"
	MsgMethodNotAllowed    = "Method not allowed"
	MsgInternalError       = "Internal server error"
	MsgPasswordMismatch    = "Password and confirm password mismatch"
	MsgSpotifyNotLinked    = "Spotify not connected"
	MsgUnsupportedMedia    = "Unsupported media type"
	MsgSearchQueryRequired = "Search query is required"
	MsgPasswordError       = "Password must contain at least 6 characters, one lowercase letter, one uppercase letter, one digit, and one special character"

	// Tokens
	MsgInvalidToken = "Invalid Token"
	MsgTokenExpired = "Token expired"
	MsgValidToken   = "Valid token"
)
