package attendance

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn opens today's session, force-closing an abandoned one first.
	CheckIn(ctx context.Context, caller user.Identity) (CheckInResponse, error)

	// CheckOut closes the caller's open session and classifies the day.
	CheckOut(ctx context.Context, caller user.Identity) (AttendanceResponse, error)

	// GetDailyRecord returns the user's record for day (YYYY-MM-DD, default
	// today), or nil when there is none.
	GetDailyRecord(ctx context.Context, caller user.Identity, userID, day string) (*AttendanceResponse, error)

	GetMonthlyRecords(ctx context.Context, caller user.Identity, userID string, month, year int) ([]AttendanceResponse, error)
	ListRecords(ctx context.Context, caller user.Identity, filter ListFilter) (ListAttendanceResponse, error)

	// AdminUpdateRecord is a manual correction by a top administrator.
	AdminUpdateRecord(ctx context.Context, caller user.Identity, req UpdateRecordRequest) (AttendanceResponse, error)
	DeleteRecord(ctx context.Context, caller user.Identity, id string) error
}

// Sweeper closes sessions left open past SessionCeiling.
type Sweeper interface {
	SweepAbandoned(ctx context.Context) (int, error)
}
