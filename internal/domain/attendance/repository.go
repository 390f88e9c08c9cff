package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
)

// RecordQuery narrows a record listing. A zero Limit returns every match.
type RecordQuery struct {
	UserID    *string
	From      *time.Time
	To        *time.Time
	Status    *Status
	Limit     int
	Offset    int
	Ascending bool
}

type AttendanceRepository interface {
	Create(ctx context.Context, rec Record) (Record, error)

	// GetByID returns ErrAttendanceNotFound when no row matches.
	GetByID(ctx context.Context, id string) (Record, error)

	// GetByUserAndDate returns nil when the user has no record that day.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Record, error)

	// GetOpenSession returns the user's latest open record, or nil.
	GetOpenSession(ctx context.Context, userID string) (*Record, error)

	// CloseSession writes the closing fields only while the stored row is
	// still open. It reports false when another writer closed it first.
	CloseSession(ctx context.Context, rec Record) (bool, error)

	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error

	// ListStaleOpen returns open records that checked in before cutoff.
	ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]Record, error)

	List(ctx context.Context, q RecordQuery, visible scope.Filter) ([]Record, int64, error)

	// MarkLeave upserts a Leave record for the user's day, converting a
	// closed same-day record in place and remembering its status. An open
	// session is never converted.
	MarkLeave(ctx context.Context, userID string, day time.Time, leaveRequestID string) error

	// DeleteLeaveDays removes the Leave records created for a leave request
	// and restores the records it converted. It returns both counts summed.
	DeleteLeaveDays(ctx context.Context, leaveRequestID string) (int64, error)
}
