package timesheet

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

// ========================================
// TIME LOG DTOs
// ========================================

type TimeLogRequest struct {
	ID          string  `json:"-"`
	Job         string  `json:"job" validate:"required"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Hours       float64 `json:"hours" validate:"gt=0,lte=24"`
	Description string  `json:"description"`
}

func (r *TimeLogRequest) Validate() error {
	r.Job = strings.TrimSpace(r.Job)
	r.Description = strings.TrimSpace(r.Description)
	return validator.Struct(r)
}

type TimeLogResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	Job                string  `json:"job"`
	Date               string  `json:"date"`
	Hours              float64 `json:"hours"`
	Description        string  `json:"description,omitempty"`
	TimesheetID        *string `json:"timesheet_id,omitempty"`
	IsAddedToTimesheet bool    `json:"is_added_to_timesheet"`
}

func ToTimeLogResponse(l TimeLog, c *clock.BusinessClock) TimeLogResponse {
	return TimeLogResponse{
		ID:                 l.ID,
		EmployeeID:         l.EmployeeID,
		Job:                l.Job,
		Date:               c.FormatDate(l.Date),
		Hours:              l.Hours,
		Description:        l.Description,
		TimesheetID:        l.TimesheetID,
		IsAddedToTimesheet: l.IsAddedToTimesheet,
	}
}

// ========================================
// TIMESHEET DTOs
// ========================================

type CreateTimesheetRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	TimeLogIDs  []string `json:"time_logs"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"` // default today
}

func (r *CreateTimesheetRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validator.Struct(r); err != nil {
		return err
	}

	seen := make(map[string]bool, len(r.TimeLogIDs))
	ids := r.TimeLogIDs[:0]
	for _, id := range r.TimeLogIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	r.TimeLogIDs = ids
	if len(r.TimeLogIDs) == 0 {
		return ErrNoTimeLogs
	}
	return nil
}

type UpdateStatusRequest struct {
	ID            string   `json:"-"`
	Status        string   `json:"status" validate:"required"`
	ApprovedHours *float64 `json:"approved_hours,omitempty"`
}

func (r *UpdateStatusRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	st, ok := ParseStatus(r.Status)
	if !ok || st == StatusPending {
		return ErrInvalidStatus
	}
	r.Status = string(st)
	if r.ApprovedHours != nil && *r.ApprovedHours < 0 {
		return ErrInvalidApprovedHour
	}
	return nil
}

// ListFilter picks a date range, or a month, or neither.
type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if (f.StartDate == "") != (f.EndDate == "") {
		errs.Add("start_date", "start_date and end_date must be provided together")
	}
	if f.StartDate != "" {
		if _, ok := validator.IsValidDate(f.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != "" {
		if _, ok := validator.IsValidDate(f.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if (f.Month == 0) != (f.Year == 0) {
		errs.Add("month", "month and year must be provided together")
	}

	return errs.Err()
}

type TimesheetResponse struct {
	ID             string            `json:"id"`
	EmployeeID     string            `json:"employee_id"`
	EmployeeName   string            `json:"employee_name,omitempty"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Date           string            `json:"date"`
	SubmittedHours float64           `json:"submitted_hours"`
	ApprovedHours  *float64          `json:"approved_hours,omitempty"`
	Status         string            `json:"status"`
	ReviewedBy     *string           `json:"reviewed_by,omitempty"`
	ReviewedAt     *string           `json:"reviewed_at,omitempty"`
	TimeLogs       []TimeLogResponse `json:"time_logs"`
}

func ToTimesheetResponse(ts Timesheet, c *clock.BusinessClock) TimesheetResponse {
	resp := TimesheetResponse{
		ID:             ts.ID,
		EmployeeID:     ts.EmployeeID,
		EmployeeName:   ts.EmployeeName,
		Name:           ts.Name,
		Description:    ts.Description,
		Date:           c.FormatDate(ts.Date),
		SubmittedHours: ts.SubmittedHours,
		ApprovedHours:  ts.ApprovedHours,
		Status:         string(ts.Status),
		ReviewedBy:     ts.ReviewedBy,
		TimeLogs:       make([]TimeLogResponse, 0, len(ts.TimeLogs)),
	}
	if ts.ReviewedAt != nil {
		at := ts.ReviewedAt.In(c.Location()).Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	for _, l := range ts.TimeLogs {
		resp.TimeLogs = append(resp.TimeLogs, ToTimeLogResponse(l, c))
	}
	return resp
}

type WeeklyResponse struct {
	WeekStart      string              `json:"week_start"`
	WeekEnd        string              `json:"week_end"`
	Timesheets     []TimesheetResponse `json:"timesheets"`
	WeeklyTotal    float64             `json:"weekly_total"`
	RemainingHours float64             `json:"remaining_hours"`
}
