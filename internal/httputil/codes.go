package httputil

// Machine-readable error codes returned alongside the human message.
const (
	CodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeEmailRequired       = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat  = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired    = "PASSWORD_REQUIRED"
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUserBlocked         = "USER_BLOCKED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidResetToken   = "INVALID_OR_EXPIRED_TOKEN"
	CodeMissingAuth         = "MISSING_AUTH"
	CodeInvalidAuthHeader   = "INVALID_AUTH_HEADER"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAdminRequired       = "ADMIN_REQUIRED"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeCooldownActive      = "COOLDOWN_ACTIVE"
	CodeEmailDeliveryFailed = "EMAIL_DELIVERY_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)
