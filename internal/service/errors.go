package service

import "errors"

// Domain errors returned to the HTTP layer.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrListingNotFound    = errors.New("listing not found")
	ErrPageNotFound       = errors.New("page out of range")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Messages shown next to form fields.
const (
	msgUsernameTaken = "This username already exists."
	msgEmailTaken    = "This email already exists."
	msgNoAccount     = "There is no account registered to this email."
)
