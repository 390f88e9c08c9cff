package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// CreateLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) CreateLeave(ctx context.Context, caller user.Identity, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	if !caller.Valid() {
		return leave.LeaveResponse{}, user.ErrMissingIdentity
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	start, err := s.clock.ParseDate(req.StartDate)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	end, err := s.clock.ParseDate(req.EndDate)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to parse end date: %w", err)
	}
	leaveType, _ := leave.ParseType(req.LeaveType)
	now := s.clock.Now()

	request := leave.LeaveRequest{
		EmployeeID:   caller.ID,
		EmployeeName: caller.Name,
		Email:        caller.Email,
		LeaveType:    leaveType,
		StartDate:    start,
		EndDate:      end,
		Days:         s.clock.DaySpan(start, end),
		Reason:       req.Reason,
		Status:       leave.StatusPending,
		AppliedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.checkOverlap(ctx, caller.ID, start, end, ""); err != nil {
		return leave.LeaveResponse{}, err
	}

	var created leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Reserve locks the balance row, so repeating the overlap check
		// after it sees every request committed before this one.
		if err := s.balances.Reserve(ctx, caller.ID, leaveType, request.Days); err != nil {
			return err
		}

		if err := s.checkOverlap(ctx, caller.ID, start, end, ""); err != nil {
			return err
		}

		var err error
		created, err = s.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		if _, err := s.balances.HistoryRepository.Append(ctx, leave.HistoryEntry{
			UserID:    caller.ID,
			LeaveID:   created.ID,
			LeaveType: created.LeaveType,
			StartDate: created.StartDate,
			EndDate:   created.EndDate,
			DaysTaken: created.Days,
			Status:    created.Status,
			Reason:    created.Reason,
		}); err != nil {
			return fmt.Errorf("failed to append leave history: %w", err)
		}

		for _, day := range s.clock.BusinessDaysBetween(start, end) {
			if err := s.days.MarkLeave(ctx, caller.ID, day, created.ID); err != nil {
				return fmt.Errorf("failed to mark %s as leave: %w", s.clock.FormatDate(day), err)
			}
		}

		return s.recordEvent(ctx, event.TypeLeaveCreated, created, "", caller.ID)
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("Leave request created", "leave_id", created.ID, "employee_id", caller.ID, "leave_type", created.LeaveType, "days", created.Days)
	s.notifyCreated(ctx, created)

	return leave.ToLeaveResponse(created, s.clock), nil
}

// UpdateLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) UpdateLeave(ctx context.Context, caller user.Identity, req leave.UpdateLeaveRequest) (leave.LeaveResponse, error) {
	if !caller.Valid() {
		return leave.LeaveResponse{}, user.ErrMissingIdentity
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	current, err := s.LeaveRequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if current.EmployeeID != caller.ID {
		return leave.LeaveResponse{}, leave.ErrNotLeaveOwner
	}

	start, err := s.clock.ParseDate(req.StartDate)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	end, err := s.clock.ParseDate(req.EndDate)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to parse end date: %w", err)
	}
	leaveType, _ := leave.ParseType(req.LeaveType)
	span := s.clock.DaySpan(start, end)

	var updated leave.LeaveRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.LeaveRequestRepository.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if locked.Status != leave.StatusPending {
			return leave.ErrAlreadyProcessed
		}

		if err := s.balances.Rebook(ctx, locked, leaveType, span); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, caller.ID, start, end, locked.ID); err != nil {
			return err
		}

		next := locked
		next.LeaveType = leaveType
		next.StartDate = start
		next.EndDate = end
		next.Days = span
		next.Reason = req.Reason
		next.UpdatedAt = s.clock.Now()
		updated, err = s.LeaveRequestRepository.Update(ctx, next)
		if err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		if err := s.balances.HistoryRepository.UpdateByLeave(ctx, leave.HistoryEntry{
			UserID:    updated.EmployeeID,
			LeaveID:   updated.ID,
			LeaveType: updated.LeaveType,
			StartDate: updated.StartDate,
			EndDate:   updated.EndDate,
			DaysTaken: updated.Days,
			Status:    updated.Status,
			Reason:    updated.Reason,
		}); err != nil {
			return fmt.Errorf("failed to update leave history: %w", err)
		}

		if _, err := s.days.DeleteLeaveDays(ctx, updated.ID); err != nil {
			return fmt.Errorf("failed to clear leave attendance: %w", err)
		}
		for _, day := range s.clock.BusinessDaysBetween(start, end) {
			if err := s.days.MarkLeave(ctx, caller.ID, day, updated.ID); err != nil {
				return fmt.Errorf("failed to mark %s as leave: %w", s.clock.FormatDate(day), err)
			}
		}

		return s.recordEvent(ctx, event.TypeLeaveUpdated, updated, "", caller.ID)
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("Leave request updated", "leave_id", updated.ID, "employee_id", caller.ID, "leave_type", updated.LeaveType, "days", updated.Days)
	return leave.ToLeaveResponse(updated, s.clock), nil
}

// SetLeaveStatus implements leave.LeaveService. The current status is read
// under the request row lock.
func (s *LeaveServiceImpl) SetLeaveStatus(ctx context.Context, caller user.Identity, req leave.UpdateStatusRequest) (leave.LeaveResponse, error) {
	if !s.authz.Can(caller.Role, user.PermLeaveSetStatus) {
		return leave.LeaveResponse{}, leave.ErrReviewForbidden
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	current, err := s.LeaveRequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if caller.Role.IsManagerTier() && current.EmployeeID == caller.ID {
		return leave.LeaveResponse{}, leave.ErrSelfReview
	}
	if err := s.ensureVisible(ctx, caller, current.EmployeeID); err != nil {
		return leave.LeaveResponse{}, err
	}

	status, _ := leave.ParseStatus(req.Status)

	var (
		updated  leave.LeaveRequest
		previous leave.Status
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.LeaveRequestRepository.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		updated = locked
		if locked.Status == status {
			return nil
		}
		if locked.Status == leave.StatusRejected && status != leave.StatusApproved {
			return leave.ErrReopenRejected
		}

		previous = locked.Status
		now := s.clock.Now()
		updated.Status = status
		updated.UpdatedAt = now

		if err := s.balances.Transition(ctx, locked, status); err != nil {
			return err
		}
		if err := s.LeaveRequestRepository.UpdateStatus(ctx, locked.ID, status, now); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		if err := s.balances.HistoryRepository.UpdateStatus(ctx, locked.ID, status); err != nil {
			return fmt.Errorf("failed to update leave history: %w", err)
		}
		if _, err := s.ResponseRepository.Create(ctx, statusNote(caller, locked.ID, previous, status, req.Note, now)); err != nil {
			return fmt.Errorf("failed to record status note: %w", err)
		}
		return s.recordEvent(ctx, event.TypeLeaveStatusChanged, updated, previous, caller.ID)
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if previous == "" {
		return leave.ToLeaveResponse(updated, s.clock), nil
	}

	slog.Info("Leave request status changed", "leave_id", updated.ID, "from", previous, "to", status, "by", caller.ID)
	s.notifyStatus(ctx, updated, caller, req.Note)

	return leave.ToLeaveResponse(updated, s.clock), nil
}

func statusNote(caller user.Identity, leaveID string, from, to leave.Status, content string, at time.Time) leave.Response {
	note := leave.Response{
		LeaveID:    leaveID,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
		AuthorRole: caller.Role.Label(),
		Content:    content,
		CreatedAt:  at,
	}
	if note.Content == "" {
		note.IsSystemNote = true
		note.Content = fmt.Sprintf("Leave request status changed from %q to %q by %s (%s).",
			from, to, caller.Name, caller.Role.Label())
	}
	return note
}

// DeleteLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) DeleteLeave(ctx context.Context, caller user.Identity, id string) error {
	current, err := s.LeaveRequestRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if current.EmployeeID != caller.ID {
		if !s.authz.Can(caller.Role, user.PermLeaveDeleteAny) {
			return user.ErrInsufficientPrivilege
		}
		if err := s.ensureVisible(ctx, caller, current.EmployeeID); err != nil {
			return err
		}
	}

	var removed int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.LeaveRequestRepository.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked.Status != leave.StatusPending {
			return leave.ErrAlreadyProcessed
		}

		if err := s.balances.Release(ctx, locked.EmployeeID, locked.LeaveType, locked.Days); err != nil {
			return err
		}
		if err := s.balances.HistoryRepository.DeleteByLeave(ctx, locked.ID); err != nil {
			return fmt.Errorf("failed to delete leave history: %w", err)
		}
		removed, err = s.days.DeleteLeaveDays(ctx, locked.ID)
		if err != nil {
			return fmt.Errorf("failed to delete leave attendance: %w", err)
		}
		if err := s.LeaveRequestRepository.Delete(ctx, locked.ID); err != nil {
			return fmt.Errorf("failed to delete leave request: %w", err)
		}
		return s.recordEvent(ctx, event.TypeLeaveDeleted, locked, "", caller.ID)
	})
	if err != nil {
		return err
	}

	slog.Info("Leave request deleted", "leave_id", current.ID, "by", caller.ID, "attendance_touched", removed)
	return nil
}

// checkOverlap looks for another held request of the employee intersecting
// [start, end]. except skips the request being edited.
func (s *LeaveServiceImpl) checkOverlap(ctx context.Context, employeeID string, start, end time.Time, except string) error {
	active, err := s.LeaveRequestRepository.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to check overlapping leave requests: %w", err)
	}
	for _, existing := range active {
		if existing.ID == except {
			continue
		}
		if existing.Overlaps(start, end) {
			return fmt.Errorf("%w: %s to %s", leave.ErrOverlappingLeave,
				s.clock.FormatDate(existing.StartDate), s.clock.FormatDate(existing.EndDate))
		}
	}
	return nil
}

type leaveEventPayload struct {
	LeaveID        string `json:"leave_id"`
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Days           int    `json:"days"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	ActorID        string `json:"actor_id"`
}

func (s *LeaveServiceImpl) recordEvent(ctx context.Context, eventType string, req leave.LeaveRequest, previous leave.Status, actorID string) error {
	evt, err := event.New(event.AggregateLeave, req.ID, eventType, leaveEventPayload{
		LeaveID:        req.ID,
		EmployeeID:     req.EmployeeID,
		LeaveType:      string(req.LeaveType),
		StartDate:      s.clock.FormatDate(req.StartDate),
		EndDate:        s.clock.FormatDate(req.EndDate),
		Days:           req.Days,
		Status:         string(req.Status),
		PreviousStatus: string(previous),
		ActorID:        actorID,
	})
	if err != nil {
		return err
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}
