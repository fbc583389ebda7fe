package auth

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountBlocked        = errors.New("user is blocked")
	ErrForbidden             = errors.New("admin access required")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrMailDelivery          = errors.New("failed to send reset email")
	ErrEmailRequired         = errors.New("email is required")
	ErrInvalidEmailFormat    = errors.New("invalid email format")
	ErrPasswordRequired      = errors.New("password is required")
	ErrNameRequired          = errors.New("name is required")
)
