package timesheet

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type TimesheetService interface {
	// Time logs, always the caller's own
	CreateTimeLog(ctx context.Context, caller user.Identity, req TimeLogRequest) (TimeLogResponse, error)
	ListTimeLogs(ctx context.Context, caller user.Identity, date string) ([]TimeLogResponse, error)
	UpdateTimeLog(ctx context.Context, caller user.Identity, req TimeLogRequest) (TimeLogResponse, error)
	DeleteTimeLog(ctx context.Context, caller user.Identity, id string) error

	// CreateTimesheet bundles one day of the caller's logs for review.
	CreateTimesheet(ctx context.Context, caller user.Identity, req CreateTimesheetRequest) (TimesheetResponse, error)
	UpdateTimesheetStatus(ctx context.Context, caller user.Identity, req UpdateStatusRequest) (TimesheetResponse, error)

	GetWeeklyTimesheets(ctx context.Context, caller user.Identity, weekStart string) (WeeklyResponse, error)
	ListTimesheets(ctx context.Context, caller user.Identity, filter ListFilter) ([]TimesheetResponse, error)
	GetTimesheet(ctx context.Context, caller user.Identity, id string) (TimesheetResponse, error)
}
