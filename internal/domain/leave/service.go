package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type LeaveService interface {
	// CreateLeave books the caller's leave and marks the covered days.
	CreateLeave(ctx context.Context, caller user.Identity, req CreateLeaveRequest) (LeaveResponse, error)
	SetLeaveStatus(ctx context.Context, caller user.Identity, req UpdateStatusRequest) (LeaveResponse, error)

	// UpdateLeave lets the owner change a Pending request; the booked days
	// follow the new range.
	UpdateLeave(ctx context.Context, caller user.Identity, req UpdateLeaveRequest) (LeaveResponse, error)

	// DeleteLeave withdraws a Pending request and refunds its days.
	DeleteLeave(ctx context.Context, caller user.Identity, id string) error
	GetLeave(ctx context.Context, caller user.Identity, id string) (LeaveResponse, error)
	ListLeaves(ctx context.Context, caller user.Identity, filter ListFilter) (ListLeaveResponse, error)

	// Responses
	AddResponse(ctx context.Context, caller user.Identity, leaveID string, req ResponseRequest) (ResponseEntry, error)
	UpdateResponse(ctx context.Context, caller user.Identity, leaveID, responseID string, req ResponseRequest) (ResponseEntry, error)
	DeleteResponse(ctx context.Context, caller user.Identity, leaveID, responseID string) error
	ListResponses(ctx context.Context, caller user.Identity, leaveID string) ([]ResponseEntry, error)

	// Balances
	GetBalance(ctx context.Context, caller user.Identity, userID string) (BalanceResponse, error)
	UpdateAllocation(ctx context.Context, caller user.Identity, req AllocationRequest) (BalanceResponse, error)

	CanManageHolidays(caller user.Identity) bool
}

// LedgerRepairer re-derives stored balances from the leave history.
type LedgerRepairer interface {
	RebuildBalance(ctx context.Context, userID string) (Drift, error)
	RebuildAll(ctx context.Context) ([]Drift, error)
}
