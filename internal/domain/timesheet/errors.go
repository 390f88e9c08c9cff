package timesheet

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

var (
	ErrTimeLogNotFound   = apperror.NotFound("time log not found")
	ErrTimesheetNotFound = apperror.NotFound("timesheet not found")

	ErrNoTimeLogs          = apperror.Validation("no time logs provided")
	ErrInvalidTimeLogs     = apperror.Validation("invalid time logs or logs already added to another timesheet")
	ErrLogDateMismatch     = apperror.Validation("all time logs must be for the same date as the timesheet")
	ErrInvalidStatus       = apperror.Validation("status must be one of: Approved, Rejected")
	ErrInvalidApprovedHour = apperror.Validation("approved_hours must be between 0 and the submitted hours")

	ErrTimeLogLocked      = apperror.Conflict("time log has already been added to a timesheet")
	ErrDuplicateTimesheet = apperror.Conflict("a timesheet has already been submitted for this date")
	ErrWeeklyCapExceeded  = apperror.Conflict("weekly hour limit (40 hours) exceeded")
	ErrAlreadyReviewed    = apperror.Conflict("timesheet has already been reviewed")

	ErrNotTimeLogOwner = apperror.Permission("you can only change your own time logs")
	ErrReviewForbidden = apperror.Permission("you are not allowed to review timesheets")
	ErrSelfReview      = apperror.Permission("you cannot review your own timesheet")
)
