package user

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

var (
	ErrUserNotFound          = apperror.NotFound("user not found")
	ErrManagerNotFound       = apperror.NotFound("manager not found")
	ErrSelfReporting         = apperror.Validation("a user cannot report to themselves")
	ErrReportingCycle        = apperror.Validation("assignment would create a reporting cycle")
	ErrInsufficientPrivilege = apperror.Permission("insufficient permissions")
	ErrMissingIdentity       = apperror.Permission("caller identity is missing")
)
