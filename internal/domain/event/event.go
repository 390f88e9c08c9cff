// Package event describes domain events recorded in the transactional outbox
// and relayed to the message broker.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeAttendanceAutoClosed = "attendance.auto_closed"
	TypeLeaveCreated         = "leave.created"
	TypeLeaveUpdated         = "leave.updated"
	TypeLeaveStatusChanged   = "leave.status_changed"
	TypeLeaveDeleted         = "leave.deleted"
	TypeTimesheetReviewed    = "timesheet.reviewed"
)

const (
	AggregateAttendance = "attendance"
	AggregateLeave      = "leave"
	AggregateTimesheet  = "timesheet"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Status        string
	RetryCount    int
	CreatedAt     time.Time
}

// New builds a pending event with payload marshalled as JSON.
func New(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       body,
		Status:        StatusPending,
	}, nil
}

// OutboxRepository stores events in the same transaction as the change that
// produced them.
type OutboxRepository interface {
	Create(ctx context.Context, evt Event) error
	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Publisher delivers an event to the broker.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
