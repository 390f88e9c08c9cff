package dashboard

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
)

type DashboardRepository interface {
	CountUsers(ctx context.Context, visible scope.Filter) (int64, error)
	CountPendingLeaves(ctx context.Context, visible scope.Filter) (int64, error)
	CountPendingTimesheets(ctx context.Context, visible scope.Filter) (int64, error)

	// AttendanceByStatus counts records dated day, keyed by status.
	AttendanceByStatus(ctx context.Context, day time.Time, visible scope.Filter) (map[attendance.Status]int64, error)
}
