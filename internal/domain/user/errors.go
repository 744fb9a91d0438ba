package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateEmployee = errors.New("employee id already registered")
	ErrUserInactive      = errors.New("user account is deactivated")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidDepartment = errors.New("invalid department")
)
