package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

type leaveHistoryRepositoryImpl struct {
	db *database.DB
}

func NewLeaveHistoryRepository(db *database.DB) leave.HistoryRepository {
	return &leaveHistoryRepositoryImpl{db: db}
}

// Append implements leave.HistoryRepository.
func (r *leaveHistoryRepositoryImpl) Append(ctx context.Context, h leave.HistoryEntry) (leave.HistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_history (user_id, leave_id, leave_type, start_date, end_date, days_taken, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		h.UserID, h.LeaveID, string(h.LeaveType), h.StartDate, h.EndDate, h.DaysTaken, string(h.Status), h.Reason,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return leave.HistoryEntry{}, fmt.Errorf("failed to append leave history: %w", err)
	}
	return h, nil
}

// UpdateStatus implements leave.HistoryRepository.
func (r *leaveHistoryRepositoryImpl) UpdateStatus(ctx context.Context, leaveID string, status leave.Status) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE leave_history SET status = $1 WHERE leave_id = $2`, string(status), leaveID); err != nil {
		return fmt.Errorf("failed to update leave history: %w", err)
	}
	return nil
}

// UpdateByLeave implements leave.HistoryRepository.
func (r *leaveHistoryRepositoryImpl) UpdateByLeave(ctx context.Context, h leave.HistoryEntry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_history
		SET leave_type = $1, start_date = $2, end_date = $3, days_taken = $4, status = $5, reason = $6
		WHERE leave_id = $7
	`

	tag, err := q.Exec(ctx, query,
		string(h.LeaveType), h.StartDate, h.EndDate, h.DaysTaken, string(h.Status), h.Reason, h.LeaveID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// DeleteByLeave implements leave.HistoryRepository.
func (r *leaveHistoryRepositoryImpl) DeleteByLeave(ctx context.Context, leaveID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM leave_history WHERE leave_id = $1`, leaveID); err != nil {
		return fmt.Errorf("failed to delete leave history: %w", err)
	}
	return nil
}

// ListByUser implements leave.HistoryRepository.
func (r *leaveHistoryRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]leave.HistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, leave_id, leave_type, start_date, end_date, days_taken, status, reason, created_at
		FROM leave_history
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave history: %w", err)
	}
	defer rows.Close()

	var entries []leave.HistoryEntry
	for rows.Next() {
		var h leave.HistoryEntry
		var leaveType, status string
		err := rows.Scan(&h.ID, &h.UserID, &h.LeaveID, &leaveType, &h.StartDate, &h.EndDate,
			&h.DaysTaken, &status, &h.Reason, &h.CreatedAt)
		if err != nil {
			return nil, err
		}
		h.LeaveType = leave.Type(leaveType)
		h.Status = leave.Status(status)
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
