package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	attendanceColumns = `a.id, a.user_id, a.date, a.check_in, a.check_out, a.total_hours, a.status,
		a.notes, a.auto_checked_out, a.leave_request_id, a.created_at, a.updated_at, u.name`

	attendanceFrom = `FROM attendance_records a JOIN users u ON u.id = a.user_id`
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var status string
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.TotalHours, &status,
		&rec.Notes, &rec.AutoCheckedOut, &rec.LeaveRequestID, &rec.CreatedAt, &rec.UpdatedAt, &rec.UserName,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Status = attendance.Status(status)
	return rec, nil
}

func collectAttendance(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// optionalAttendance turns pgx.ErrNoRows into a nil record.
func optionalAttendance(row pgx.Row) (*attendance.Record, error) {
	rec, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Create implements attendance.AttendanceRepository. Both the (user, date)
// key and the single-open-session index surface as ErrAlreadyCheckedIn or
// ErrActiveSession.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			user_id, date, check_in, check_out, total_hours, status, notes, auto_checked_out, leave_request_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.UserID, rec.Date, rec.CheckIn, rec.CheckOut, rec.TotalHours, string(rec.Status),
		rec.Notes, rec.AutoCheckedOut, rec.LeaveRequestID,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "attendance_records_user_date_key"):
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		case isUniqueViolation(err, "attendance_records_one_open_session"):
			return attendance.Record{}, attendance.ErrActiveSession
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` ` + attendanceFrom + ` WHERE a.id = $1`

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return rec, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` ` + attendanceFrom + `
		WHERE a.user_id = $1 AND a.date = $2
		LIMIT 1`

	rec, err := optionalAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance by date: %w", err)
	}
	return rec, nil
}

// GetOpenSession implements attendance.AttendanceRepository. The row is
// locked when called inside a transaction.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, userID string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` ` + attendanceFrom + `
		WHERE a.user_id = $1
		  AND a.check_in IS NOT NULL
		  AND a.check_out IS NULL
		ORDER BY a.check_in DESC
		LIMIT 1`
	if _, inTx := database.TxFromContext(ctx); inTx {
		query += ` FOR UPDATE OF a`
	}

	rec, err := optionalAttendance(q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}
	return rec, nil
}

// CloseSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) CloseSession(ctx context.Context, rec attendance.Record) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET check_out = $1, total_hours = $2, status = $3, notes = $4, auto_checked_out = $5, updated_at = NOW()
		WHERE id = $6 AND check_out IS NULL
	`

	tag, err := q.Exec(ctx, query, rec.CheckOut, rec.TotalHours, string(rec.Status), rec.Notes, rec.AutoCheckedOut, rec.ID)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET check_in = $1, check_out = $2, total_hours = $3, status = $4, notes = $5,
			auto_checked_out = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.CheckIn, rec.CheckOut, rec.TotalHours, string(rec.Status), rec.Notes, rec.AutoCheckedOut, rec.ID,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		if isUniqueViolation(err, "attendance_records_one_open_session") {
			return attendance.Record{}, attendance.ErrActiveSession
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	return rec, nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListStaleOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` ` + attendanceFrom + `
		WHERE a.check_in IS NOT NULL
		  AND a.check_out IS NULL
		  AND a.check_in <= $1
		ORDER BY a.check_in ASC
		LIMIT $2`

	rows, err := q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sessions: %w", err)
	}
	return collectAttendance(rows)
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.RecordQuery, visible scope.Filter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	whereClause := "WHERE TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.UserID != nil {
		whereClause += fmt.Sprintf(" AND a.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.From != nil {
		whereClause += fmt.Sprintf(" AND a.date >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		whereClause += fmt.Sprintf(" AND a.date <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND a.status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}

	whereClause, args, argIndex, err := appendScope(whereClause, args, argIndex, visible, map[scope.Field]string{
		scope.FieldUser: "a.user_id",
	})
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) ` + attendanceFrom + ` ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	query := `SELECT ` + attendanceColumns + ` ` + attendanceFrom + ` ` + whereClause +
		` ORDER BY a.date ` + order + `, a.created_at ` + order
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	records, err := collectAttendance(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// MarkLeave implements attendance.AttendanceRepository. An open session is
// left untouched; a closed record keeps its status in prior_status.
func (a *attendanceRepository) MarkLeave(ctx context.Context, userID string, day time.Time, leaveRequestID string) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (user_id, date, status, total_hours, leave_request_id)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (user_id, date) DO UPDATE
		SET status = EXCLUDED.status,
			prior_status = CASE
				WHEN attendance_records.leave_request_id IS NULL THEN attendance_records.status
				ELSE attendance_records.prior_status
			END,
			leave_request_id = EXCLUDED.leave_request_id,
			updated_at = NOW()
		WHERE NOT (attendance_records.check_in IS NOT NULL AND attendance_records.check_out IS NULL)
	`

	if _, err := q.Exec(ctx, query, userID, day, string(attendance.StatusLeave), leaveRequestID); err != nil {
		return fmt.Errorf("failed to mark leave day: %w", err)
	}
	return nil
}

// DeleteLeaveDays implements attendance.AttendanceRepository. Records the
// request converted get their prior status back; the rest are deleted.
func (a *attendanceRepository) DeleteLeaveDays(ctx context.Context, leaveRequestID string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		WITH restored AS (
			UPDATE attendance_records
			SET status = prior_status, prior_status = NULL, leave_request_id = NULL, updated_at = NOW()
			WHERE leave_request_id = $1 AND prior_status IS NOT NULL
			RETURNING id
		), removed AS (
			DELETE FROM attendance_records
			WHERE leave_request_id = $1 AND prior_status IS NULL AND status = $2
			RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM restored) + (SELECT COUNT(*) FROM removed)
	`

	var touched int64
	if err := q.QueryRow(ctx, query, leaveRequestID, string(attendance.StatusLeave)).Scan(&touched); err != nil {
		return 0, fmt.Errorf("failed to delete leave days: %w", err)
	}
	return touched, nil
}
