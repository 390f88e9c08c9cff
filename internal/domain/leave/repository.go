package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
)

// RequestQuery narrows ListLeaves. A zero Limit returns every row.
type RequestQuery struct {
	EmployeeID *string
	Status     *Status
	LeaveType  *Type
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// GetForUpdate locks the request row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	Update(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Delete(ctx context.Context, id string) error

	// ListActiveByEmployee returns the employee's Pending and Approved requests.
	ListActiveByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)

	List(ctx context.Context, q RequestQuery, visible scope.Filter) ([]LeaveRequest, int64, error)
}

type BalanceRepository interface {
	// GetForUpdate locks the user's balance row for the surrounding transaction.
	GetForUpdate(ctx context.Context, userID string) (Balance, error)
	Get(ctx context.Context, userID string) (Balance, error)
	Save(ctx context.Context, b Balance) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, h HistoryEntry) (HistoryEntry, error)
	UpdateStatus(ctx context.Context, leaveID string, status Status) error
	UpdateByLeave(ctx context.Context, h HistoryEntry) error
	DeleteByLeave(ctx context.Context, leaveID string) error
	ListByUser(ctx context.Context, userID string) ([]HistoryEntry, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, r Response) (Response, error)
	GetByID(ctx context.Context, leaveID, id string) (Response, error)
	Update(ctx context.Context, r Response) (Response, error)
	Delete(ctx context.Context, leaveID, id string) error
	ListByLeave(ctx context.Context, leaveID string) ([]Response, error)
}
