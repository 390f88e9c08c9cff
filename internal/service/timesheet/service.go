package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

type TimesheetServiceImpl struct {
	timesheet.TimesheetRepository
	logs     timesheet.TimeLogRepository
	users    user.UserRepository
	outbox   event.OutboxRepository
	tx       database.TxManager
	scopes   scope.Resolver
	authz    user.Authorizer
	clock    *clock.BusinessClock
	notifier notification.Service
}

func NewTimesheetService(
	timesheetRepo timesheet.TimesheetRepository,
	timeLogRepo timesheet.TimeLogRepository,
	userRepo user.UserRepository,
	outbox event.OutboxRepository,
	tx database.TxManager,
	scopes scope.Resolver,
	authz user.Authorizer,
	clk *clock.BusinessClock,
	notifier notification.Service,
) timesheet.TimesheetService {
	return &TimesheetServiceImpl{
		TimesheetRepository: timesheetRepo,
		logs:                timeLogRepo,
		users:               userRepo,
		outbox:              outbox,
		tx:                  tx,
		scopes:              scopes,
		authz:               authz,
		clock:               clk,
		notifier:            notifier,
	}
}

// CreateTimesheet implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) CreateTimesheet(ctx context.Context, caller user.Identity, req timesheet.CreateTimesheetRequest) (timesheet.TimesheetResponse, error) {
	if !caller.Valid() {
		return timesheet.TimesheetResponse{}, user.ErrMissingIdentity
	}
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	date := s.clock.StartOfDay(s.clock.Now())
	if req.Date != "" {
		parsed, err := s.clock.ParseDate(req.Date)
		if err != nil {
			return timesheet.TimesheetResponse{}, fmt.Errorf("failed to parse date: %w", err)
		}
		date = parsed
	}

	logs, err := s.logs.ListByIDs(ctx, req.TimeLogIDs)
	if err != nil {
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to load time logs: %w", err)
	}
	usable := 0
	for _, l := range logs {
		if l.EmployeeID == caller.ID && !l.IsAddedToTimesheet {
			usable++
		}
	}
	if usable != len(req.TimeLogIDs) {
		return timesheet.TimesheetResponse{}, timesheet.ErrInvalidTimeLogs
	}
	for _, l := range logs {
		if !s.clock.SameDay(l.Date, date) {
			return timesheet.TimesheetResponse{}, fmt.Errorf("%w (%s)", timesheet.ErrLogDateMismatch, s.clock.FormatDate(date))
		}
	}

	submitted := timesheet.SumHours(logs)
	weekStart := s.clock.StartOfWeek(date)
	now := s.clock.Now()
	var created timesheet.Timesheet
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Concurrent submissions for the same week queue here, so the sum
		// below includes every committed sibling.
		if err := s.TimesheetRepository.LockWeek(ctx, caller.ID, weekStart); err != nil {
			return err
		}

		existing, err := s.TimesheetRepository.GetByEmployeeAndDate(ctx, caller.ID, date)
		if err != nil {
			return fmt.Errorf("failed to check existing timesheet: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", timesheet.ErrDuplicateTimesheet, s.clock.FormatDate(date))
		}

		weekly, err := s.TimesheetRepository.WeeklyHours(ctx, caller.ID, weekStart, s.clock.EndOfWeek(date))
		if err != nil {
			return fmt.Errorf("failed to sum weekly hours: %w", err)
		}
		if timesheet.Round(weekly+submitted) > timesheet.WeeklyHourCap {
			return fmt.Errorf("%w: %.2f hours already submitted this week, %.2f requested",
				timesheet.ErrWeeklyCapExceeded, weekly, submitted)
		}

		created, err = s.TimesheetRepository.Create(ctx, timesheet.Timesheet{
			EmployeeID:     caller.ID,
			EmployeeName:   caller.Name,
			Email:          caller.Email,
			Name:           req.Name,
			Description:    strings.TrimSpace(req.Description),
			Date:           date,
			SubmittedHours: submitted,
			Status:         timesheet.StatusPending,
			TimeLogIDs:     req.TimeLogIDs,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("failed to create timesheet: %w", err)
		}

		attached, err := s.logs.AttachToTimesheet(ctx, req.TimeLogIDs, created.ID)
		if err != nil {
			return fmt.Errorf("failed to attach time logs: %w", err)
		}
		// Another submission claimed a log between the check and now.
		if attached != int64(len(req.TimeLogIDs)) {
			return timesheet.ErrInvalidTimeLogs
		}
		return nil
	})
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	tsID := created.ID
	for i := range logs {
		logs[i].IsAddedToTimesheet = true
		logs[i].TimesheetID = &tsID
	}
	created.TimeLogs = logs

	slog.Info("Timesheet submitted", "timesheet_id", created.ID, "employee_id", caller.ID, "hours", submitted)
	return timesheet.ToTimesheetResponse(created, s.clock), nil
}

// UpdateTimesheetStatus implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) UpdateTimesheetStatus(ctx context.Context, caller user.Identity, req timesheet.UpdateStatusRequest) (timesheet.TimesheetResponse, error) {
	if !s.authz.Can(caller.Role, user.PermTimesheetReview) {
		return timesheet.TimesheetResponse{}, timesheet.ErrReviewForbidden
	}
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	ts, err := s.TimesheetRepository.GetByID(ctx, req.ID)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	if ts.EmployeeID == caller.ID {
		return timesheet.TimesheetResponse{}, timesheet.ErrSelfReview
	}
	if err := s.ensureVisible(ctx, caller, ts.EmployeeID); err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	if ts.Status != timesheet.StatusPending {
		return timesheet.TimesheetResponse{}, timesheet.ErrAlreadyReviewed
	}

	status, _ := timesheet.ParseStatus(req.Status)
	var approved *float64
	switch {
	case req.ApprovedHours != nil:
		if *req.ApprovedHours > ts.SubmittedHours {
			return timesheet.TimesheetResponse{}, timesheet.ErrInvalidApprovedHour
		}
		h := timesheet.Round(*req.ApprovedHours)
		approved = &h
	case status == timesheet.StatusApproved:
		h := ts.SubmittedHours
		approved = &h
	}

	now := s.clock.Now()
	reviewer := caller.ID
	ts.Status = status
	ts.ApprovedHours = approved
	ts.ReviewedBy = &reviewer
	ts.ReviewedAt = &now
	ts.UpdatedAt = now

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		won, err := s.TimesheetRepository.Review(ctx, ts)
		if err != nil {
			return fmt.Errorf("failed to review timesheet: %w", err)
		}
		if !won {
			return timesheet.ErrAlreadyReviewed
		}
		return s.recordReviewed(ctx, ts)
	})
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	slog.Info("Timesheet reviewed", "timesheet_id", ts.ID, "status", status, "by", caller.ID)
	s.notifyReviewed(ctx, ts, caller)

	return timesheet.ToTimesheetResponse(ts, s.clock), nil
}

// GetWeeklyTimesheets implements timesheet.TimesheetService. weekStart
// defaults to the Monday of the current week.
func (s *TimesheetServiceImpl) GetWeeklyTimesheets(ctx context.Context, caller user.Identity, weekStart string) (timesheet.WeeklyResponse, error) {
	start := s.clock.StartOfWeek(s.clock.Now())
	if strings.TrimSpace(weekStart) != "" {
		parsed, err := s.clock.ParseDate(weekStart)
		if err != nil {
			return timesheet.WeeklyResponse{}, apperror.Validation("week_start must be in YYYY-MM-DD format")
		}
		start = parsed
	}
	end := s.clock.EndOfDay(start.AddDate(0, 0, 6))

	visible, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceTimesheet)
	if err != nil {
		return timesheet.WeeklyResponse{}, err
	}

	sheets, err := s.TimesheetRepository.List(ctx, timesheet.TimesheetQuery{From: &start, To: &end, Ascending: true}, visible)
	if err != nil {
		return timesheet.WeeklyResponse{}, fmt.Errorf("failed to list weekly timesheets: %w", err)
	}

	total := 0.0
	items := make([]timesheet.TimesheetResponse, 0, len(sheets))
	for _, ts := range sheets {
		if ts.Status.CountsTowardCap() {
			total += ts.SubmittedHours
		}
		items = append(items, timesheet.ToTimesheetResponse(ts, s.clock))
	}
	total = timesheet.Round(total)

	return timesheet.WeeklyResponse{
		WeekStart:      s.clock.FormatDate(start),
		WeekEnd:        s.clock.FormatDate(end),
		Timesheets:     items,
		WeeklyTotal:    total,
		RemainingHours: timesheet.RemainingHours(total),
	}, nil
}

// ListTimesheets implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) ListTimesheets(ctx context.Context, caller user.Identity, filter timesheet.ListFilter) ([]timesheet.TimesheetResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	visible, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceTimesheet)
	if err != nil {
		return nil, err
	}

	var q timesheet.TimesheetQuery
	switch {
	case filter.StartDate != "":
		from, _ := s.clock.ParseDate(filter.StartDate)
		end, _ := s.clock.ParseDate(filter.EndDate)
		to := s.clock.EndOfDay(end)
		q.From, q.To = &from, &to
	case filter.Month != 0:
		from := s.clock.StartOfMonth(filter.Year, time.Month(filter.Month))
		to := s.clock.EndOfMonth(filter.Year, time.Month(filter.Month))
		q.From, q.To = &from, &to
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		if !visible.Allows(map[scope.Field]string{scope.FieldEmployee: *filter.EmployeeID}) {
			return nil, scope.ErrOutOfScope
		}
		q.EmployeeID = filter.EmployeeID
	}

	sheets, err := s.TimesheetRepository.List(ctx, q, visible)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}

	out := make([]timesheet.TimesheetResponse, 0, len(sheets))
	for _, ts := range sheets {
		out = append(out, timesheet.ToTimesheetResponse(ts, s.clock))
	}
	return out, nil
}

// GetTimesheet implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetTimesheet(ctx context.Context, caller user.Identity, id string) (timesheet.TimesheetResponse, error) {
	ts, err := s.TimesheetRepository.GetByID(ctx, id)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	if err := s.ensureVisible(ctx, caller, ts.EmployeeID); err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	return timesheet.ToTimesheetResponse(ts, s.clock), nil
}

func (s *TimesheetServiceImpl) ensureVisible(ctx context.Context, caller user.Identity, employeeID string) error {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceTimesheet)
	if err != nil {
		return err
	}
	if !filter.Allows(map[scope.Field]string{scope.FieldEmployee: employeeID}) {
		return scope.ErrOutOfScope
	}
	return nil
}

type reviewedPayload struct {
	TimesheetID    string   `json:"timesheet_id"`
	EmployeeID     string   `json:"employee_id"`
	Date           string   `json:"date"`
	Status         string   `json:"status"`
	SubmittedHours float64  `json:"submitted_hours"`
	ApprovedHours  *float64 `json:"approved_hours,omitempty"`
	ReviewerID     string   `json:"reviewer_id"`
}

func (s *TimesheetServiceImpl) recordReviewed(ctx context.Context, ts timesheet.Timesheet) error {
	evt, err := event.New(event.AggregateTimesheet, ts.ID, event.TypeTimesheetReviewed, reviewedPayload{
		TimesheetID:    ts.ID,
		EmployeeID:     ts.EmployeeID,
		Date:           s.clock.FormatDate(ts.Date),
		Status:         string(ts.Status),
		SubmittedHours: ts.SubmittedHours,
		ApprovedHours:  ts.ApprovedHours,
		ReviewerID:     *ts.ReviewedBy,
	})
	if err != nil {
		return err
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to record %s event: %w", evt.Type, err)
	}
	return nil
}

func (s *TimesheetServiceImpl) notifyReviewed(ctx context.Context, ts timesheet.Timesheet, reviewer user.Identity) {
	if s.notifier == nil {
		return
	}

	to := ts.Email
	name := ts.EmployeeName
	if to == "" {
		owner, err := s.users.GetByID(ctx, ts.EmployeeID)
		if err != nil || owner.Email == "" {
			slog.Warn("No email address for timesheet owner", "timesheet_id", ts.ID, "employee_id", ts.EmployeeID)
			return
		}
		to, name = owner.Email, owner.Name
	}

	data := notification.TimesheetEmail{
		Title:          "Timesheet " + string(ts.Status),
		Color:          notification.StatusColor(string(ts.Status)),
		EmployeeName:   name,
		Name:           ts.Name,
		Date:           s.clock.FormatDate(ts.Date),
		Status:         string(ts.Status),
		SubmittedHours: ts.SubmittedHours,
		ReviewerName:   reviewer.Name,
	}
	if ts.ApprovedHours != nil {
		data.ApprovedHours = *ts.ApprovedHours
	}

	err := s.notifier.QueueEmail(ctx, notification.EmailRequest{
		To:       []string{to},
		Subject:  "Timesheet Update: " + string(ts.Status),
		Template: notification.TemplateTimesheetStatus,
		Data:     data,
	})
	if err != nil {
		slog.Error("Failed to queue email", "template", notification.TemplateTimesheetStatus, "error", err)
	}
}
