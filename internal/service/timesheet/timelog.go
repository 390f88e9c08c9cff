package timesheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"
)

// CreateTimeLog implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) CreateTimeLog(ctx context.Context, caller user.Identity, req timesheet.TimeLogRequest) (timesheet.TimeLogResponse, error) {
	if !caller.Valid() {
		return timesheet.TimeLogResponse{}, user.ErrMissingIdentity
	}
	if err := req.Validate(); err != nil {
		return timesheet.TimeLogResponse{}, err
	}

	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return timesheet.TimeLogResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	now := s.clock.Now()
	created, err := s.logs.Create(ctx, timesheet.TimeLog{
		EmployeeID:  caller.ID,
		Job:         req.Job,
		Date:        date,
		Hours:       timesheet.Round(req.Hours),
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return timesheet.TimeLogResponse{}, fmt.Errorf("failed to create time log: %w", err)
	}
	return timesheet.ToTimeLogResponse(created, s.clock), nil
}

// ListTimeLogs implements timesheet.TimesheetService. An empty date lists
// every log.
func (s *TimesheetServiceImpl) ListTimeLogs(ctx context.Context, caller user.Identity, date string) ([]timesheet.TimeLogResponse, error) {
	if !caller.Valid() {
		return nil, user.ErrMissingIdentity
	}

	var logs []timesheet.TimeLog
	var err error
	if strings.TrimSpace(date) == "" {
		logs, err = s.logs.ListByEmployee(ctx, caller.ID, nil, nil)
	} else {
		day, perr := s.clock.ParseDate(strings.TrimSpace(date))
		if perr != nil {
			return nil, apperror.Validation("date must be in YYYY-MM-DD format")
		}
		end := s.clock.EndOfDay(day)
		logs, err = s.logs.ListByEmployee(ctx, caller.ID, &day, &end)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}

	out := make([]timesheet.TimeLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, timesheet.ToTimeLogResponse(l, s.clock))
	}
	return out, nil
}

// UpdateTimeLog implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) UpdateTimeLog(ctx context.Context, caller user.Identity, req timesheet.TimeLogRequest) (timesheet.TimeLogResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.TimeLogResponse{}, err
	}

	existing, err := s.editableLog(ctx, caller, req.ID)
	if err != nil {
		return timesheet.TimeLogResponse{}, err
	}

	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return timesheet.TimeLogResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}
	existing.Job = req.Job
	existing.Date = date
	existing.Hours = timesheet.Round(req.Hours)
	existing.Description = req.Description
	existing.UpdatedAt = s.clock.Now()

	updated, err := s.logs.Update(ctx, existing)
	if err != nil {
		return timesheet.TimeLogResponse{}, err
	}
	return timesheet.ToTimeLogResponse(updated, s.clock), nil
}

// DeleteTimeLog implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) DeleteTimeLog(ctx context.Context, caller user.Identity, id string) error {
	if _, err := s.editableLog(ctx, caller, id); err != nil {
		return err
	}
	return s.logs.Delete(ctx, id)
}

func (s *TimesheetServiceImpl) editableLog(ctx context.Context, caller user.Identity, id string) (timesheet.TimeLog, error) {
	log, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return timesheet.TimeLog{}, err
	}
	if log.EmployeeID != caller.ID {
		return timesheet.TimeLog{}, timesheet.ErrNotTimeLogOwner
	}
	if log.IsAddedToTimesheet {
		return timesheet.TimeLog{}, timesheet.ErrTimeLogLocked
	}
	return log, nil
}
