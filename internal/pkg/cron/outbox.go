package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
)

const (
	DefaultRelayInterval = 3 * time.Second
	relayBatchSize       = 50
)

// OutboxJobs relays pending outbox events to the broker.
type OutboxJobs struct {
	repo      event.OutboxRepository
	publisher event.Publisher
	interval  time.Duration
}

func NewOutboxJobs(repo event.OutboxRepository, publisher event.Publisher, interval time.Duration) *OutboxJobs {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	return &OutboxJobs{repo: repo, publisher: publisher, interval: interval}
}

func (j *OutboxJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("relay_outbox_events", j.interval, j.RelayPending)
}

// RelayPending publishes one batch. A failed publish marks the event failed
// and moves on to the next one.
func (j *OutboxJobs) RelayPending(ctx context.Context) error {
	events, err := j.repo.ListPending(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	slog.Debug("Processing pending outbox events", "count", len(events))

	for _, evt := range events {
		if err := j.publisher.Publish(ctx, evt); err != nil {
			slog.Error("Publish outbox event failed",
				"outbox_id", evt.ID,
				"event_type", evt.Type,
				"error", err)
			if markErr := j.repo.MarkFailed(ctx, evt.ID, err.Error()); markErr != nil {
				slog.Error("Mark outbox failed failed", "outbox_id", evt.ID, "error", markErr)
			}
			continue
		}

		if err := j.repo.MarkSent(ctx, evt.ID); err != nil {
			slog.Error("Mark outbox sent failed", "outbox_id", evt.ID, "error", err)
			continue
		}

		slog.Info("Outbox event sent", "outbox_id", evt.ID, "event_type", evt.Type)
	}

	return nil
}
