package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	timesheetColumns = `ts.id, ts.employee_id, u.name, u.email, ts.name, ts.description, ts.date,
		ts.submitted_hours, ts.approved_hours, ts.status, ts.reviewed_by, ts.reviewed_at,
		ts.created_at, ts.updated_at`

	timesheetFrom = `FROM timesheets ts JOIN users u ON u.id = ts.employee_id`
)

type timesheetRepositoryImpl struct {
	db *database.DB
}

func NewTimesheetRepository(db *database.DB) timesheet.TimesheetRepository {
	return &timesheetRepositoryImpl{db: db}
}

func scanTimesheet(row pgx.Row) (timesheet.Timesheet, error) {
	var ts timesheet.Timesheet
	var status string
	err := row.Scan(
		&ts.ID, &ts.EmployeeID, &ts.EmployeeName, &ts.Email, &ts.Name, &ts.Description, &ts.Date,
		&ts.SubmittedHours, &ts.ApprovedHours, &status, &ts.ReviewedBy, &ts.ReviewedAt,
		&ts.CreatedAt, &ts.UpdatedAt,
	)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	ts.Status = timesheet.Status(status)
	return ts, nil
}

// Create implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timesheets (employee_id, name, description, date, submitted_hours, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		ts.EmployeeID, ts.Name, ts.Description, ts.Date, ts.SubmittedHours, string(ts.Status), ts.CreatedAt,
	).Scan(&ts.ID, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "timesheets_employee_date_key") {
			return timesheet.Timesheet{}, timesheet.ErrDuplicateTimesheet
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to create timesheet: %w", err)
	}
	return ts, nil
}

// GetByID implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timesheetColumns + ` ` + timesheetFrom + ` WHERE ts.id = $1`

	ts, err := scanTimesheet(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to get timesheet: %w", err)
	}

	logs, err := listTimeLogs(ctx, q, `WHERE timesheet_id = $1`, ts.ID)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	ts.TimeLogs = logs
	for _, l := range logs {
		ts.TimeLogIDs = append(ts.TimeLogIDs, l.ID)
	}
	return ts, nil
}

// GetByEmployeeAndDate implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timesheetColumns + ` ` + timesheetFrom + ` WHERE ts.employee_id = $1 AND ts.date = $2`

	ts, err := scanTimesheet(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get timesheet by date: %w", err)
	}
	return &ts, nil
}

// LockWeek implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) LockWeek(ctx context.Context, employeeID string, weekStart time.Time) error {
	return advisoryXactLock(ctx, "timesheets:"+employeeID+":"+weekStart.Format(time.DateOnly))
}

// WeeklyHours implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) WeeklyHours(ctx context.Context, employeeID string, from, to time.Time) (float64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(submitted_hours), 0)
		FROM timesheets
		WHERE employee_id = $1
		  AND date BETWEEN $2 AND $3
		  AND status = ANY($4::text[])
	`

	counted := []string{string(timesheet.StatusPending), string(timesheet.StatusApproved)}
	var total float64
	if err := q.QueryRow(ctx, query, employeeID, from, to, counted).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum weekly hours: %w", err)
	}
	return total, nil
}

// Review implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) Review(ctx context.Context, ts timesheet.Timesheet) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timesheets
		SET status = $1, approved_hours = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	tag, err := q.Exec(ctx, query,
		string(ts.Status), ts.ApprovedHours, ts.ReviewedBy, ts.ReviewedAt, ts.UpdatedAt,
		ts.ID, string(timesheet.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("failed to review timesheet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List implements timesheet.TimesheetRepository. Logs are not loaded.
func (r *timesheetRepositoryImpl) List(ctx context.Context, filter timesheet.TimesheetQuery, visible scope.Filter) ([]timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND ts.employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.From != nil {
		whereClause += fmt.Sprintf(" AND ts.date >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		whereClause += fmt.Sprintf(" AND ts.date <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}

	whereClause, args, _, err := appendScope(whereClause, args, argIndex, visible, map[scope.Field]string{
		scope.FieldEmployee: "ts.employee_id",
	})
	if err != nil {
		return nil, err
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	query := `SELECT ` + timesheetColumns + ` ` + timesheetFrom + ` ` + whereClause + ` ORDER BY ts.date ` + order

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []timesheet.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, ts)
	}
	return sheets, rows.Err()
}
