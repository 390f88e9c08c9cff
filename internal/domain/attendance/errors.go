package attendance

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

// Attendance domain errors
var (
	// Check-in errors
	ErrWeekendCheckIn   = apperror.Validation("check-in is not allowed on weekends")
	ErrAlreadyCheckedIn = apperror.Conflict("you have already checked in today")
	ErrActiveSession    = apperror.Conflict("an active session already exists")

	// Check-out errors
	ErrNoActiveSession   = apperror.NotFound("no active session")
	ErrCorruptCheckIn    = apperror.DataIntegrity("invalid check-in time, the session was discarded")
	ErrSessionClosedAway = apperror.Conflict("the session was already closed")

	// General errors
	ErrAttendanceNotFound = apperror.NotFound("attendance record not found")
	ErrInvalidStatus      = apperror.Validation("status must be one of: Present, Half Day, Absent, Leave")
	ErrInvalidTimeRange   = apperror.Validation("check_out must not be before check_in")
)
