package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type AttendanceResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	UserName       *string `json:"user_name,omitempty"`
	Date           string  `json:"date"`
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	TotalHours     float64 `json:"total_hours"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes,omitempty"`
	AutoCheckedOut bool    `json:"auto_checked_out"`
	LeaveRequestID *string `json:"leave_request_id,omitempty"`
}

// timePtrToString renders t in the business zone.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

func ToResponse(rec Record, c *clock.BusinessClock) AttendanceResponse {
	return AttendanceResponse{
		ID:             rec.ID,
		UserID:         rec.UserID,
		UserName:       rec.UserName,
		Date:           c.FormatDate(rec.Date),
		CheckIn:        timePtrToString(rec.CheckIn, c.Location()),
		CheckOut:       timePtrToString(rec.CheckOut, c.Location()),
		TotalHours:     rec.TotalHours,
		Status:         string(rec.Status),
		Notes:          rec.Notes,
		AutoCheckedOut: rec.AutoCheckedOut,
		LeaveRequestID: rec.LeaveRequestID,
	}
}

type CheckInResponse struct {
	Record     AttendanceResponse  `json:"record"`
	AutoClosed *AttendanceResponse `json:"auto_closed,omitempty"`
	Message    string              `json:"message"`
}

type ListFilter struct {
	UserID    *string `json:"user_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	if f.Status != nil {
		if _, ok := ParseStatus(*f.Status); !ok {
			errs.Add("status", ErrInvalidStatus.Error())
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs.Add("sort_order", "sort_order must be one of: asc, desc")
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	return errs.Err()
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

func (r ListAttendanceResponse) PageInfo() (int, int, int64) {
	return r.Page, r.Limit, r.TotalCount
}

// NewListResponse fills the pagination summary.
func NewListResponse(items []AttendanceResponse, total int64, page, limit int) ListAttendanceResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	from := (page-1)*limit + 1
	to := from + len(items) - 1
	showing := fmt.Sprintf("%d-%d of %d", from, to, total)
	if len(items) == 0 {
		showing = fmt.Sprintf("0 of %d", total)
	}
	if items == nil {
		items = []AttendanceResponse{}
	}
	return ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: items,
	}
}

// UpdateRecordRequest fixes a record by hand. Times are RFC3339.
type UpdateRecordRequest struct {
	ID         string   `json:"-"`
	CheckIn    *string  `json:"check_in,omitempty"`
	CheckOut   *string  `json:"check_out,omitempty"`
	TotalHours *float64 `json:"total_hours,omitempty"`
	Status     *string  `json:"status,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

func (r *UpdateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.CheckIn != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckIn); !ok {
			errs.Add("check_in", "check_in must be an RFC3339 timestamp")
		}
	}
	if r.CheckOut != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOut); !ok {
			errs.Add("check_out", "check_out must be an RFC3339 timestamp")
		}
	}
	if r.TotalHours != nil && (*r.TotalHours < 0 || *r.TotalHours > 24) {
		errs.Add("total_hours", "total_hours must be between 0 and 24")
	}
	if r.Status != nil {
		if _, ok := ParseStatus(*r.Status); !ok {
			errs.Add("status", ErrInvalidStatus.Error())
		}
	}
	if r.CheckIn == nil && r.CheckOut == nil && r.TotalHours == nil && r.Status == nil && r.Notes == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.Err()
}
