package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeLogColumns = `id, employee_id, job, date, hours, description, timesheet_id,
	is_added_to_timesheet, created_at, updated_at`

type timeLogRepositoryImpl struct {
	db *database.DB
}

func NewTimeLogRepository(db *database.DB) timesheet.TimeLogRepository {
	return &timeLogRepositoryImpl{db: db}
}

func scanTimeLog(row pgx.Row) (timesheet.TimeLog, error) {
	var l timesheet.TimeLog
	err := row.Scan(&l.ID, &l.EmployeeID, &l.Job, &l.Date, &l.Hours, &l.Description, &l.TimesheetID,
		&l.IsAddedToTimesheet, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func listTimeLogs(ctx context.Context, q database.Querier, whereClause string, args ...interface{}) ([]timesheet.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs ` + whereClause + ` ORDER BY date, created_at`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	defer rows.Close()

	var logs []timesheet.TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Create implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) Create(ctx context.Context, l timesheet.TimeLog) (timesheet.TimeLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_logs (employee_id, job, date, hours, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, l.EmployeeID, l.Job, l.Date, l.Hours, l.Description, l.CreatedAt).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return timesheet.TimeLog{}, fmt.Errorf("failed to create time log: %w", err)
	}
	return l, nil
}

// GetByID implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.TimeLog, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanTimeLog(q.QueryRow(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.TimeLog{}, timesheet.ErrTimeLogNotFound
		}
		return timesheet.TimeLog{}, fmt.Errorf("failed to get time log: %w", err)
	}
	return l, nil
}

// Update implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) Update(ctx context.Context, l timesheet.TimeLog) (timesheet.TimeLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_logs
		SET job = $1, date = $2, hours = $3, description = $4, updated_at = $5
		WHERE id = $6 AND is_added_to_timesheet = FALSE
	`

	tag, err := q.Exec(ctx, query, l.Job, l.Date, l.Hours, l.Description, l.UpdatedAt, l.ID)
	if err != nil {
		return timesheet.TimeLog{}, fmt.Errorf("failed to update time log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.TimeLog{}, r.missOrLocked(ctx, l.ID)
	}
	return l, nil
}

// Delete implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM time_logs WHERE id = $1 AND is_added_to_timesheet = FALSE`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrLocked(ctx, id)
	}
	return nil
}

// missOrLocked explains why a guarded write touched no rows.
func (r *timeLogRepositoryImpl) missOrLocked(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return timesheet.ErrTimeLogLocked
}

// ListByEmployee implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to *time.Time) ([]timesheet.TimeLog, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE employee_id = $1"
	args := []interface{}{employeeID}
	argIndex := 2

	if from != nil {
		whereClause += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, *from)
		argIndex++
	}
	if to != nil {
		whereClause += fmt.Sprintf(" AND date <= $%d", argIndex)
		args = append(args, *to)
	}

	return listTimeLogs(ctx, q, whereClause, args...)
}

// ListByIDs implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]timesheet.TimeLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return listTimeLogs(ctx, GetQuerier(ctx, r.db), `WHERE id = ANY($1::uuid[])`, ids)
}

// AttachToTimesheet implements timesheet.TimeLogRepository.
func (r *timeLogRepositoryImpl) AttachToTimesheet(ctx context.Context, ids []string, timesheetID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_logs
		SET timesheet_id = $1, is_added_to_timesheet = TRUE, updated_at = NOW()
		WHERE id = ANY($2::uuid[]) AND is_added_to_timesheet = FALSE
	`

	tag, err := q.Exec(ctx, query, timesheetID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to attach time logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
