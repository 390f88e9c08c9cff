package notification

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("notification queue is full")

// EmailRequest is one templated email to one or more recipients.
type EmailRequest struct {
	To       []string
	Subject  string
	Template string
	Data     any
}

// Service delivers notifications in the background. Queueing never waits on
// delivery.
type Service interface {
	QueueEmail(ctx context.Context, req EmailRequest) error

	// Stop drains the queue and waits for the workers.
	Stop()
}
