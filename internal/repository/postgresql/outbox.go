package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

// maxOutboxRetries is how many failed publishes an event gets before it is
// parked as failed.
const maxOutboxRetries = 5

type outboxRepositoryImpl struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) event.OutboxRepository {
	return &outboxRepositoryImpl{db: db}
}

// Create implements event.OutboxRepository. It joins the caller's
// transaction when ctx carries one.
func (r *outboxRepositoryImpl) Create(ctx context.Context, evt event.Event) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query, evt.ID, evt.AggregateType, evt.AggregateID, evt.Type, string(evt.Payload), evt.Status)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ListPending implements event.OutboxRepository. Rows locked by a
// concurrent relay are skipped.
func (r *outboxRepositoryImpl) ListPending(ctx context.Context, limit int) ([]event.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, retry_count, created_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, event.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var evt event.Event
		var payload string
		err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.Type, &payload,
			&evt.Status, &evt.RetryCount, &evt.CreatedAt)
		if err != nil {
			return nil, err
		}
		evt.Payload = []byte(payload)
		events = append(events, evt)
	}
	return events, rows.Err()
}

// MarkSent implements event.OutboxRepository.
func (r *outboxRepositoryImpl) MarkSent(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE outbox_events SET status = $1, sent_at = NOW(), last_error = NULL WHERE id = $2`,
		event.StatusSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}

// MarkFailed implements event.OutboxRepository. The event stays pending
// until it has failed maxOutboxRetries times.
func (r *outboxRepositoryImpl) MarkFailed(ctx context.Context, id string, reason string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			last_error = $1,
			status = CASE WHEN retry_count + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $4
	`

	if _, err := q.Exec(ctx, query, reason, maxOutboxRetries, event.StatusFailed, id); err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}
