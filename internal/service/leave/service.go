package leave

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

type LeaveServiceImpl struct {
	leave.LeaveRequestRepository
	leave.ResponseRepository
	days     attendance.AttendanceRepository
	users    user.UserRepository
	balances *BalanceService
	outbox   event.OutboxRepository
	tx       database.TxManager
	scopes   scope.Resolver
	authz    user.Authorizer
	clock    *clock.BusinessClock
	notifier notification.Service
}

func NewLeaveService(
	requestRepo leave.LeaveRequestRepository,
	responseRepo leave.ResponseRepository,
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	balances *BalanceService,
	outbox event.OutboxRepository,
	tx database.TxManager,
	scopes scope.Resolver,
	authz user.Authorizer,
	clk *clock.BusinessClock,
	notifier notification.Service,
) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRequestRepository: requestRepo,
		ResponseRepository:     responseRepo,
		days:                   attendanceRepo,
		users:                  userRepo,
		balances:               balances,
		outbox:                 outbox,
		tx:                     tx,
		scopes:                 scopes,
		authz:                  authz,
		clock:                  clk,
		notifier:               notifier,
	}
}

// GetLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) GetLeave(ctx context.Context, caller user.Identity, id string) (leave.LeaveResponse, error) {
	req, err := s.visibleRequest(ctx, caller, id)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	return leave.ToLeaveResponse(req, s.clock), nil
}

// ListLeaves implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaves(ctx context.Context, caller user.Identity, filter leave.ListFilter) (leave.ListLeaveResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveResponse{}, err
	}

	visible, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceLeave)
	if err != nil {
		return leave.ListLeaveResponse{}, err
	}

	q := leave.RequestQuery{
		Limit:  filter.Limit,
		Offset: (filter.Page - 1) * filter.Limit,
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		if !visible.Allows(map[scope.Field]string{scope.FieldEmployee: *filter.EmployeeID}) {
			return leave.ListLeaveResponse{}, scope.ErrOutOfScope
		}
		q.EmployeeID = filter.EmployeeID
	}
	if filter.Status != nil {
		st, _ := leave.ParseStatus(*filter.Status)
		q.Status = &st
	}
	if filter.LeaveType != nil {
		t, _ := leave.ParseType(*filter.LeaveType)
		q.LeaveType = &t
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		from, _ := s.clock.ParseDate(*filter.StartDate)
		q.From = &from
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		to, _ := s.clock.ParseDate(*filter.EndDate)
		q.To = &to
	}

	requests, total, err := s.LeaveRequestRepository.List(ctx, q, visible)
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	items := make([]leave.LeaveResponse, 0, len(requests))
	for _, r := range requests {
		items = append(items, leave.ToLeaveResponse(r, s.clock))
	}
	return leave.NewListResponse(items, total, filter.Page, filter.Limit), nil
}

// GetBalance implements leave.LeaveService. An empty userID means the caller.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, caller user.Identity, userID string) (leave.BalanceResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = caller.ID
	}
	if err := s.ensureVisible(ctx, caller, userID); err != nil {
		return leave.BalanceResponse{}, err
	}

	b, err := s.balances.BalanceRepository.Get(ctx, userID)
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	return leave.ToBalanceResponse(b), nil
}

// UpdateAllocation implements leave.LeaveService. Global roles may set any
// user's allocation; the manager tier only that of direct reports.
func (s *LeaveServiceImpl) UpdateAllocation(ctx context.Context, caller user.Identity, req leave.AllocationRequest) (leave.BalanceResponse, error) {
	if !s.authz.Can(caller.Role, user.PermLeaveAllocate) {
		return leave.BalanceResponse{}, user.ErrInsufficientPrivilege
	}
	if err := req.Validate(); err != nil {
		return leave.BalanceResponse{}, err
	}

	target, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	if !s.authz.Can(caller.Role, user.PermLeaveAllocateAny) {
		if target.ReportsTo == nil || *target.ReportsTo != caller.ID {
			return leave.BalanceResponse{}, leave.ErrAllocationForbidden
		}
	}

	var updated leave.Balance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err = s.balances.Reallocate(ctx, target.ID, *req.PTO, *req.Sick)
		return err
	})
	if err != nil {
		return leave.BalanceResponse{}, err
	}

	return leave.ToBalanceResponse(updated), nil
}

// CanManageHolidays implements leave.LeaveService.
func (s *LeaveServiceImpl) CanManageHolidays(caller user.Identity) bool {
	return s.authz.Can(caller.Role, user.PermHolidayManage)
}

func (s *LeaveServiceImpl) visibleRequest(ctx context.Context, caller user.Identity, id string) (leave.LeaveRequest, error) {
	req, err := s.LeaveRequestRepository.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if err := s.ensureVisible(ctx, caller, req.EmployeeID); err != nil {
		return leave.LeaveRequest{}, err
	}
	return req, nil
}

func (s *LeaveServiceImpl) ensureVisible(ctx context.Context, caller user.Identity, employeeID string) error {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceLeave)
	if err != nil {
		return err
	}
	if !filter.Allows(map[scope.Field]string{scope.FieldEmployee: employeeID}) {
		return scope.ErrOutOfScope
	}
	return nil
}
