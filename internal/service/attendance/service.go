package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	outbox event.OutboxRepository
	tx     database.TxManager
	scopes scope.Resolver
	authz  user.Authorizer
	clock  *clock.BusinessClock
	policy attendance.ClosePolicy
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	outbox event.OutboxRepository,
	tx database.TxManager,
	scopes scope.Resolver,
	authz user.Authorizer,
	clk *clock.BusinessClock,
	policy attendance.ClosePolicy,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		outbox:               outbox,
		tx:                   tx,
		scopes:               scopes,
		authz:                authz,
		clock:                clk,
		policy:               policy,
	}
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, caller user.Identity) (attendance.CheckInResponse, error) {
	if !caller.Valid() {
		return attendance.CheckInResponse{}, user.ErrMissingIdentity
	}

	now := s.clock.Now()
	if s.clock.IsWeekend(now) {
		return attendance.CheckInResponse{}, attendance.ErrWeekendCheckIn
	}
	today := s.clock.StartOfDay(now)

	existing, err := s.AttendanceRepository.GetByUserAndDate(ctx, caller.ID, today)
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to check today's attendance: %w", err)
	}
	if existing != nil {
		return attendance.CheckInResponse{}, attendance.ErrAlreadyCheckedIn
	}

	var (
		created    attendance.Record
		autoClosed *attendance.Record
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		open, err := s.AttendanceRepository.GetOpenSession(ctx, caller.ID)
		if err != nil {
			return fmt.Errorf("failed to get open session: %w", err)
		}

		if open != nil {
			if !attendance.IsAbandoned(*open, now) {
				return attendance.ErrActiveSession
			}

			closed := s.policy.ForceClose(*open, attendance.TriggerCheckIn, now)
			won, err := s.AttendanceRepository.CloseSession(ctx, closed)
			if err != nil {
				return fmt.Errorf("failed to auto-close session: %w", err)
			}
			// A lost race means the sweeper already closed it.
			if won {
				if err := recordAutoClose(ctx, s.outbox, closed, attendance.TriggerCheckIn); err != nil {
					return err
				}
				autoClosed = &closed
			}
		}

		checkIn := now
		created, err = s.AttendanceRepository.Create(ctx, attendance.Record{
			UserID:  caller.ID,
			Date:    today,
			CheckIn: &checkIn,
			Status:  attendance.StatusPresent,
		})
		return err
	})
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	resp := attendance.CheckInResponse{
		Record:  attendance.ToResponse(created, s.clock),
		Message: "checked in",
	}
	if autoClosed != nil {
		prev := attendance.ToResponse(*autoClosed, s.clock)
		resp.AutoClosed = &prev
		resp.Message = "checked in, previous session was auto-closed"
		slog.Info("Previous session auto-closed on check-in", "user_id", caller.ID, "record_id", autoClosed.ID)
	}

	return resp, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, caller user.Identity) (attendance.AttendanceResponse, error) {
	if !caller.Valid() {
		return attendance.AttendanceResponse{}, user.ErrMissingIdentity
	}

	now := s.clock.Now()
	open, err := s.AttendanceRepository.GetOpenSession(ctx, caller.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}
	if open == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNoActiveSession
	}

	if !attendance.ValidCheckIn(*open, now) {
		slog.Warn("Discarding session with corrupt check-in", "record_id", open.ID, "user_id", caller.ID)
		if err := s.AttendanceRepository.Delete(ctx, open.ID); err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to discard corrupt session: %w", err)
		}
		return attendance.AttendanceResponse{}, attendance.ErrCorruptCheckIn
	}

	var closed attendance.Record
	if attendance.IsAbandoned(*open, now) {
		// Past the ceiling the outcome matches what the sweeper would write.
		closed = s.policy.ForceClose(*open, attendance.TriggerSweeper, now)
	} else {
		closed = *open
		checkOut := now
		closed.CheckOut = &checkOut
		closed.TotalHours = attendance.HoursBetween(*open.CheckIn, now)
		closed.Status = attendance.Classify(closed.TotalHours)
		closed.UpdatedAt = now
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		won, err := s.AttendanceRepository.CloseSession(ctx, closed)
		if err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}
		if !won {
			return attendance.ErrSessionClosedAway
		}
		if closed.AutoCheckedOut {
			return recordAutoClose(ctx, s.outbox, closed, attendance.TriggerSweeper)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(closed, s.clock), nil
}

// GetDailyRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDailyRecord(ctx context.Context, caller user.Identity, userID, day string) (*attendance.AttendanceResponse, error) {
	userID = s.subject(caller, userID)
	if err := s.ensureVisible(ctx, caller, userID); err != nil {
		return nil, err
	}

	date := s.clock.StartOfDay(s.clock.Now())
	if strings.TrimSpace(day) != "" {
		parsed, err := s.clock.ParseDate(day)
		if err != nil {
			return nil, apperror.Validation("date must be in YYYY-MM-DD format")
		}
		date = parsed
	}

	rec, err := s.AttendanceRepository.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	resp := attendance.ToResponse(*rec, s.clock)
	return &resp, nil
}

// GetMonthlyRecords implements attendance.AttendanceService. An empty userID
// returns every record the caller may see for the month.
func (s *AttendanceServiceImpl) GetMonthlyRecords(ctx context.Context, caller user.Identity, userID string, month, year int) ([]attendance.AttendanceResponse, error) {
	now := s.clock.Now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, apperror.Validation("month must be between 1 and 12")
	}

	visible, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceAttendance)
	if err != nil {
		return nil, err
	}

	from := s.clock.StartOfMonth(year, time.Month(month))
	to := s.clock.EndOfMonth(year, time.Month(month))
	q := attendance.RecordQuery{From: &from, To: &to, Ascending: true}
	if strings.TrimSpace(userID) != "" {
		if !visible.Allows(map[scope.Field]string{scope.FieldUser: userID}) {
			return nil, scope.ErrOutOfScope
		}
		q.UserID = &userID
	}

	records, _, err := s.AttendanceRepository.List(ctx, q, visible)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly records: %w", err)
	}
	return s.toResponses(records), nil
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, caller user.Identity, filter attendance.ListFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	visible, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceAttendance)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	q := attendance.RecordQuery{
		Limit:     filter.Limit,
		Offset:    (filter.Page - 1) * filter.Limit,
		Ascending: strings.EqualFold(filter.SortOrder, "asc"),
	}
	if filter.UserID != nil && *filter.UserID != "" {
		if !visible.Allows(map[scope.Field]string{scope.FieldUser: *filter.UserID}) {
			return attendance.ListAttendanceResponse{}, scope.ErrOutOfScope
		}
		q.UserID = filter.UserID
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		from, _ := s.clock.ParseDate(*filter.StartDate)
		q.From = &from
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		end, _ := s.clock.ParseDate(*filter.EndDate)
		to := s.clock.EndOfDay(end)
		q.To = &to
	}
	if filter.Status != nil {
		st, _ := attendance.ParseStatus(*filter.Status)
		q.Status = &st
	}

	records, total, err := s.AttendanceRepository.List(ctx, q, visible)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return attendance.NewListResponse(s.toResponses(records), total, filter.Page, filter.Limit), nil
}

// AdminUpdateRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) AdminUpdateRecord(ctx context.Context, caller user.Identity, req attendance.UpdateRecordRequest) (attendance.AttendanceResponse, error) {
	if !s.authz.Can(caller.Role, user.PermAttendanceEdit) {
		return attendance.AttendanceResponse{}, user.ErrInsufficientPrivilege
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	rec, err := s.AttendanceRepository.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if req.CheckIn != nil {
		in, _ := validator.IsValidDateTime(*req.CheckIn)
		rec.CheckIn = &in
	}
	if req.CheckOut != nil {
		out, _ := validator.IsValidDateTime(*req.CheckOut)
		rec.CheckOut = &out
	}
	if rec.CheckIn != nil && rec.CheckOut != nil && rec.CheckOut.Before(*rec.CheckIn) {
		return attendance.AttendanceResponse{}, attendance.ErrInvalidTimeRange
	}

	if req.CheckIn != nil && req.CheckOut != nil {
		rec.TotalHours = attendance.HoursBetween(*rec.CheckIn, *rec.CheckOut)
		rec.Status = attendance.Classify(rec.TotalHours)
	}
	if req.TotalHours != nil {
		rec.TotalHours = *req.TotalHours
	}
	if req.Status != nil {
		rec.Status, _ = attendance.ParseStatus(*req.Status)
	}
	if req.Notes != nil {
		rec.Notes = strings.TrimSpace(*req.Notes)
	}
	rec.UpdatedAt = s.clock.Now()

	updated, err := s.AttendanceRepository.Update(ctx, rec)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	slog.Info("Attendance record corrected", "record_id", rec.ID, "by", caller.ID)
	return attendance.ToResponse(updated, s.clock), nil
}

// DeleteRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeleteRecord(ctx context.Context, caller user.Identity, id string) error {
	if !s.authz.Can(caller.Role, user.PermAttendanceDelete) {
		return user.ErrInsufficientPrivilege
	}

	if _, err := s.AttendanceRepository.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.AttendanceRepository.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	slog.Info("Attendance record deleted", "record_id", id, "by", caller.ID)
	return nil
}

func (s *AttendanceServiceImpl) subject(caller user.Identity, userID string) string {
	if strings.TrimSpace(userID) == "" {
		return caller.ID
	}
	return strings.TrimSpace(userID)
}

func (s *AttendanceServiceImpl) ensureVisible(ctx context.Context, caller user.Identity, userID string) error {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceAttendance)
	if err != nil {
		return err
	}
	if !filter.Allows(map[scope.Field]string{scope.FieldUser: userID}) {
		return scope.ErrOutOfScope
	}
	return nil
}

func (s *AttendanceServiceImpl) toResponses(records []attendance.Record) []attendance.AttendanceResponse {
	out := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, attendance.ToResponse(rec, s.clock))
	}
	return out
}

type autoClosedPayload struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Trigger    string    `json:"trigger"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	TotalHours float64   `json:"total_hours"`
	Status     string    `json:"status"`
}

func recordAutoClose(ctx context.Context, outbox event.OutboxRepository, rec attendance.Record, trigger attendance.Trigger) error {
	evt, err := event.New(event.AggregateAttendance, rec.ID, event.TypeAttendanceAutoClosed, autoClosedPayload{
		RecordID:   rec.ID,
		UserID:     rec.UserID,
		Trigger:    trigger.String(),
		CheckIn:    *rec.CheckIn,
		CheckOut:   *rec.CheckOut,
		TotalHours: rec.TotalHours,
		Status:     string(rec.Status),
	})
	if err != nil {
		return err
	}
	if err := outbox.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to record %s event: %w", evt.Type, err)
	}
	return nil
}
