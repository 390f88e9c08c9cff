package timesheet

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
)

type TimeLogRepository interface {
	Create(ctx context.Context, log TimeLog) (TimeLog, error)
	GetByID(ctx context.Context, id string) (TimeLog, error)

	// Update and Delete fail with ErrTimeLogLocked once the log is on a timesheet.
	Update(ctx context.Context, log TimeLog) (TimeLog, error)
	Delete(ctx context.Context, id string) error

	// ListByEmployee returns the employee's logs dated in [from, to], oldest
	// first. Nil bounds are open.
	ListByEmployee(ctx context.Context, employeeID string, from, to *time.Time) ([]TimeLog, error)
	ListByIDs(ctx context.Context, ids []string) ([]TimeLog, error)

	// AttachToTimesheet marks the still-unattached logs among ids and
	// returns how many it marked.
	AttachToTimesheet(ctx context.Context, ids []string, timesheetID string) (int64, error)
}

// TimesheetQuery narrows List. Nil fields are ignored.
type TimesheetQuery struct {
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Ascending  bool
}

type TimesheetRepository interface {
	Create(ctx context.Context, ts Timesheet) (Timesheet, error)

	// GetByID loads the timesheet with its logs.
	GetByID(ctx context.Context, id string) (Timesheet, error)

	// GetByEmployeeAndDate returns nil when the employee has no timesheet that day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Timesheet, error)

	// LockWeek serializes submissions of employeeID for the week starting at
	// weekStart until the surrounding transaction ends.
	LockWeek(ctx context.Context, employeeID string, weekStart time.Time) error

	// WeeklyHours sums SubmittedHours of Pending and Approved timesheets dated in [from, to].
	WeeklyHours(ctx context.Context, employeeID string, from, to time.Time) (float64, error)

	// Review records the outcome only while the timesheet is still Pending.
	Review(ctx context.Context, ts Timesheet) (bool, error)

	List(ctx context.Context, q TimesheetQuery, visible scope.Filter) ([]Timesheet, error)
}
