package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// AddResponse implements leave.LeaveService.
func (s *LeaveServiceImpl) AddResponse(ctx context.Context, caller user.Identity, leaveID string, req leave.ResponseRequest) (leave.ResponseEntry, error) {
	if err := req.Validate(); err != nil {
		return leave.ResponseEntry{}, err
	}
	request, err := s.visibleRequest(ctx, caller, leaveID)
	if err != nil {
		return leave.ResponseEntry{}, err
	}

	created, err := s.ResponseRepository.Create(ctx, leave.Response{
		LeaveID:    request.ID,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
		AuthorRole: caller.Role.Label(),
		Content:    req.Content,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return leave.ResponseEntry{}, fmt.Errorf("failed to add response: %w", err)
	}

	if request.EmployeeID != caller.ID {
		s.notifyResponse(ctx, request, created)
	}
	return leave.ToResponseEntry(created, s.clock), nil
}

// UpdateResponse implements leave.LeaveService.
func (s *LeaveServiceImpl) UpdateResponse(ctx context.Context, caller user.Identity, leaveID, responseID string, req leave.ResponseRequest) (leave.ResponseEntry, error) {
	if err := req.Validate(); err != nil {
		return leave.ResponseEntry{}, err
	}

	existing, err := s.ResponseRepository.GetByID(ctx, leaveID, responseID)
	if err != nil {
		return leave.ResponseEntry{}, err
	}
	if existing.IsSystemNote || existing.AuthorID != caller.ID {
		return leave.ResponseEntry{}, leave.ErrNotResponseAuthor
	}

	now := s.clock.Now()
	existing.Content = req.Content
	existing.IsEdited = true
	existing.EditedAt = &now

	updated, err := s.ResponseRepository.Update(ctx, existing)
	if err != nil {
		return leave.ResponseEntry{}, fmt.Errorf("failed to update response: %w", err)
	}
	return leave.ToResponseEntry(updated, s.clock), nil
}

// DeleteResponse implements leave.LeaveService.
func (s *LeaveServiceImpl) DeleteResponse(ctx context.Context, caller user.Identity, leaveID, responseID string) error {
	existing, err := s.ResponseRepository.GetByID(ctx, leaveID, responseID)
	if err != nil {
		return err
	}
	if existing.AuthorID != caller.ID && !s.authz.Can(caller.Role, user.PermLeaveModerateReplies) {
		return leave.ErrNotResponseAuthor
	}

	if err := s.ResponseRepository.Delete(ctx, leaveID, responseID); err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}

	slog.Info("Leave response deleted", "leave_id", leaveID, "response_id", responseID, "by", caller.ID)
	return nil
}

// ListResponses implements leave.LeaveService.
func (s *LeaveServiceImpl) ListResponses(ctx context.Context, caller user.Identity, leaveID string) ([]leave.ResponseEntry, error) {
	if _, err := s.visibleRequest(ctx, caller, leaveID); err != nil {
		return nil, err
	}

	responses, err := s.ResponseRepository.ListByLeave(ctx, leaveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	out := make([]leave.ResponseEntry, 0, len(responses))
	for _, r := range responses {
		out = append(out, leave.ToResponseEntry(r, s.clock))
	}
	return out, nil
}
