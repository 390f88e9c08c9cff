package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// Roles told about every new leave request.
var reviewerRoles = []user.Role{user.RoleSuperAdmin, user.RoleHR, user.RoleAdmin}

func (s *LeaveServiceImpl) leaveEmail(req leave.LeaveRequest) notification.LeaveEmail {
	return notification.LeaveEmail{
		EmployeeName: req.EmployeeName,
		LeaveType:    string(req.LeaveType),
		Status:       string(req.Status),
		StartDate:    s.clock.FormatDate(req.StartDate),
		EndDate:      s.clock.FormatDate(req.EndDate),
		Days:         req.Days,
		Reason:       req.Reason,
	}
}

func (s *LeaveServiceImpl) notifyCreated(ctx context.Context, req leave.LeaveRequest) {
	reviewers, err := s.users.ListByRoles(ctx, reviewerRoles)
	if err != nil {
		slog.Error("Failed to load leave reviewers", "leave_id", req.ID, "error", err)
		return
	}

	var to []string
	for _, r := range reviewers {
		if r.Email != "" && r.ID != req.EmployeeID {
			to = append(to, r.Email)
		}
	}
	if len(to) == 0 {
		return
	}

	data := s.leaveEmail(req)
	data.Title = "New Leave Request"
	data.Color = notification.ColorInfo
	s.queue(ctx, notification.EmailRequest{
		To:       to,
		Subject:  fmt.Sprintf("New %s request from %s", req.LeaveType, req.EmployeeName),
		Template: notification.TemplateLeaveCreated,
		Data:     data,
	})
}

func (s *LeaveServiceImpl) notifyStatus(ctx context.Context, req leave.LeaveRequest, reviewer user.Identity, note string) {
	to, ok := s.ownerEmail(ctx, req)
	if !ok {
		return
	}

	data := s.leaveEmail(req)
	data.Title = "Leave Request " + string(req.Status)
	data.Color = notification.StatusColor(string(req.Status))
	data.Note = note
	data.AuthorName = reviewer.Name
	data.AuthorRole = reviewer.Role.Label()
	s.queue(ctx, notification.EmailRequest{
		To:       []string{to},
		Subject:  fmt.Sprintf("Your leave request has been %s", req.Status),
		Template: notification.TemplateLeaveStatus,
		Data:     data,
	})
}

func (s *LeaveServiceImpl) notifyResponse(ctx context.Context, req leave.LeaveRequest, resp leave.Response) {
	to, ok := s.ownerEmail(ctx, req)
	if !ok {
		return
	}

	data := s.leaveEmail(req)
	data.Title = "New Response on Your Leave Request"
	data.Color = notification.ColorNeutral
	data.AuthorName = resp.AuthorName
	data.AuthorRole = resp.AuthorRole
	data.Content = resp.Content
	s.queue(ctx, notification.EmailRequest{
		To:       []string{to},
		Subject:  "New response on your leave request",
		Template: notification.TemplateLeaveResponse,
		Data:     data,
	})
}

func (s *LeaveServiceImpl) ownerEmail(ctx context.Context, req leave.LeaveRequest) (string, bool) {
	if req.Email != "" {
		return req.Email, true
	}
	owner, err := s.users.GetByID(ctx, req.EmployeeID)
	if err != nil || owner.Email == "" {
		slog.Warn("No email address for leave owner", "leave_id", req.ID, "employee_id", req.EmployeeID)
		return "", false
	}
	return owner.Email, true
}

func (s *LeaveServiceImpl) queue(ctx context.Context, req notification.EmailRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueEmail(ctx, req); err != nil {
		slog.Error("Failed to queue email", "template", req.Template, "error", err)
	}
}
