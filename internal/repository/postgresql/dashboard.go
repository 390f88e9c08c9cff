package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

type dashboardRepositoryImpl struct {
	db *database.DB
}

func NewDashboardRepository(db *database.DB) dashboard.DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

func (r *dashboardRepositoryImpl) count(ctx context.Context, from, whereClause string, args []interface{}, argIndex int, visible scope.Filter, columns map[scope.Field]string) (int64, error) {
	whereClause, args, _, err := appendScope(whereClause, args, argIndex, visible, columns)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) `+from+` `+whereClause, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountUsers implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) CountUsers(ctx context.Context, visible scope.Filter) (int64, error) {
	n, err := r.count(ctx, "FROM users u", "WHERE TRUE", nil, 1, visible, map[scope.Field]string{
		scope.FieldUser: "u.id",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountPendingLeaves implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) CountPendingLeaves(ctx context.Context, visible scope.Filter) (int64, error) {
	n, err := r.count(ctx, "FROM leave_requests lr", "WHERE lr.status = $1", []interface{}{string(leave.StatusPending)}, 2, visible, map[scope.Field]string{
		scope.FieldEmployee: "lr.employee_id",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count pending leaves: %w", err)
	}
	return n, nil
}

// CountPendingTimesheets implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) CountPendingTimesheets(ctx context.Context, visible scope.Filter) (int64, error) {
	n, err := r.count(ctx, "FROM timesheets ts", "WHERE ts.status = $1", []interface{}{string(timesheet.StatusPending)}, 2, visible, map[scope.Field]string{
		scope.FieldEmployee: "ts.employee_id",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count pending timesheets: %w", err)
	}
	return n, nil
}

// AttendanceByStatus implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) AttendanceByStatus(ctx context.Context, day time.Time, visible scope.Filter) (map[attendance.Status]int64, error) {
	whereClause, args, _, err := appendScope("WHERE a.date = $1", []interface{}{day}, 2, visible, map[scope.Field]string{
		scope.FieldUser: "a.user_id",
	})
	if err != nil {
		return nil, err
	}

	query := `SELECT a.status, COUNT(*) FROM attendance_records a ` + whereClause + ` GROUP BY a.status`
	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[attendance.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[attendance.Status(status)] = n
	}
	return counts, rows.Err()
}
