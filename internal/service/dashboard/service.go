package dashboard

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"golang.org/x/sync/errgroup"
)

type DashboardServiceImpl struct {
	dashboard.DashboardRepository
	scopes scope.Resolver
	clock  *clock.BusinessClock
}

func NewDashboardService(repo dashboard.DashboardRepository, scopes scope.Resolver, clk *clock.BusinessClock) dashboard.DashboardService {
	return &DashboardServiceImpl{
		DashboardRepository: repo,
		scopes:              scopes,
		clock:               clk,
	}
}

// GetStats implements dashboard.DashboardService. The four counts run in
// parallel, one query each.
func (s *DashboardServiceImpl) GetStats(ctx context.Context, caller user.Identity) (dashboard.StatsResponse, error) {
	if !caller.Valid() {
		return dashboard.StatsResponse{}, user.ErrMissingIdentity
	}

	filters := make(map[scope.Resource]scope.Filter, 4)
	for _, resource := range []scope.Resource{
		scope.ResourceUserList,
		scope.ResourceLeave,
		scope.ResourceTimesheet,
		scope.ResourceAttendance,
	} {
		f, err := s.scopes.ScopeFor(ctx, caller, resource)
		if err != nil {
			return dashboard.StatsResponse{}, err
		}
		filters[resource] = f
	}

	today := s.clock.StartOfDay(s.clock.Now())

	var (
		employees, leaves, timesheets int64
		byStatus                      map[attendance.Status]int64
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		employees, err = s.DashboardRepository.CountUsers(gctx, filters[scope.ResourceUserList])
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = s.DashboardRepository.CountPendingLeaves(gctx, filters[scope.ResourceLeave])
		if err != nil {
			return fmt.Errorf("failed to count pending leaves: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		timesheets, err = s.DashboardRepository.CountPendingTimesheets(gctx, filters[scope.ResourceTimesheet])
		if err != nil {
			return fmt.Errorf("failed to count pending timesheets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.DashboardRepository.AttendanceByStatus(gctx, today, filters[scope.ResourceAttendance])
		if err != nil {
			return fmt.Errorf("failed to count attendance: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboard.StatsResponse{}, err
	}

	present := byStatus[attendance.StatusPresent]
	halfDay := byStatus[attendance.StatusHalfDay]
	onLeave := byStatus[attendance.StatusLeave]

	return dashboard.StatsResponse{
		Date: s.clock.FormatDate(today),
		Summary: dashboard.Summary{
			TotalEmployees:   employees,
			PendingApprovals: leaves + timesheets,
		},
		Attendance: dashboard.AttendanceToday{
			Present: present,
			HalfDay: halfDay,
			Leave:   onLeave,
			Absent:  max(0, employees-(present+halfDay+onLeave)),
		},
		ActionItems: dashboard.ActionItems{
			Leaves:     leaves,
			Timesheets: timesheets,
		},
	}, nil
}
