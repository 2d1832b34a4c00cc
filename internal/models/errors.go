package models

import "errors"

// Domain errors. Structural not-found and auth failures are signaled as
// errors; business-rule refusals are boolean results on the services.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAuthFailed    = errors.New("incorrect password")
	ErrGroupNotFound = errors.New("group not found")
)
