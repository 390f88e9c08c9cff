package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

// ========================================
// LEAVE REQUEST DTOs
// ========================================

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"`
}

func (r *CreateLeaveRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	t, ok := ParseType(r.LeaveType)
	if !ok {
		errs.Add("leave_type", ErrInvalidLeaveType.Error())
	} else {
		r.LeaveType = string(t)
	}

	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	if end.Before(start) {
		errs.Add("end_date", ErrInvalidDateRange.Error())
	}
	r.Reason = strings.TrimSpace(r.Reason)

	return errs.Err()
}

type UpdateLeaveRequest struct {
	ID string `json:"-"`
	CreateLeaveRequest
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

func (r *UpdateStatusRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	st, ok := ParseStatus(r.Status)
	if !ok {
		return ErrInvalidStatus
	}
	r.Status = string(st)
	r.Note = strings.TrimSpace(r.Note)
	return nil
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	LeaveType  *string `json:"leave_type,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	if f.Status != nil {
		if _, ok := ParseStatus(*f.Status); !ok {
			errs.Add("status", ErrInvalidStatus.Error())
		}
	}
	if f.LeaveType != nil {
		if _, ok := ParseType(*f.LeaveType); !ok {
			errs.Add("leave_type", ErrInvalidLeaveType.Error())
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

	return errs.Err()
}

type LeaveResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	LeaveType    string `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Days         int    `json:"days"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
	AppliedAt    string `json:"applied_at"`
}

func ToLeaveResponse(r LeaveRequest, c *clock.BusinessClock) LeaveResponse {
	return LeaveResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		LeaveType:    string(r.LeaveType),
		StartDate:    c.FormatDate(r.StartDate),
		EndDate:      c.FormatDate(r.EndDate),
		Days:         r.Days,
		Reason:       r.Reason,
		Status:       string(r.Status),
		AppliedAt:    r.AppliedAt.In(c.Location()).Format(time.RFC3339),
	}
}

type ListLeaveResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Leaves     []LeaveResponse `json:"leaves"`
}

func (r ListLeaveResponse) PageInfo() (int, int, int64) {
	return r.Page, r.Limit, r.TotalCount
}

func NewListResponse(items []LeaveResponse, total int64, page, limit int) ListLeaveResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	showing := fmt.Sprintf("0 of %d", total)
	if len(items) > 0 {
		from := (page-1)*limit + 1
		showing = fmt.Sprintf("%d-%d of %d", from, from+len(items)-1, total)
	}
	if items == nil {
		items = []LeaveResponse{}
	}
	return ListLeaveResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    showing,
		Leaves:     items,
	}
}

// ========================================
// RESPONSE DTOs
// ========================================

type ResponseRequest struct {
	Content string `json:"content"`
}

func (r *ResponseRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return ErrEmptyResponse
	}
	return nil
}

type ResponseEntry struct {
	ID           string  `json:"id"`
	LeaveID      string  `json:"leave_id"`
	AuthorID     string  `json:"author_id,omitempty"`
	AuthorName   string  `json:"author_name"`
	AuthorRole   string  `json:"author_role"`
	Content      string  `json:"content"`
	IsSystemNote bool    `json:"is_system_note"`
	IsEdited     bool    `json:"is_edited"`
	EditedAt     *string `json:"edited_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func ToResponseEntry(r Response, c *clock.BusinessClock) ResponseEntry {
	entry := ResponseEntry{
		ID:           r.ID,
		LeaveID:      r.LeaveID,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		AuthorRole:   r.AuthorRole,
		Content:      r.Content,
		IsSystemNote: r.IsSystemNote,
		IsEdited:     r.IsEdited,
		CreatedAt:    r.CreatedAt.In(c.Location()).Format(time.RFC3339),
	}
	if r.EditedAt != nil {
		edited := r.EditedAt.In(c.Location()).Format(time.RFC3339)
		entry.EditedAt = &edited
	}
	return entry
}

// ========================================
// BALANCE DTOs
// ========================================

type AllocationRequest struct {
	UserID string `json:"-"`
	PTO    *int   `json:"pto" validate:"required,gte=0,lte=365"`
	Sick   *int   `json:"sick" validate:"required,gte=0,lte=365"`
}

func (r *AllocationRequest) Validate() error {
	return validator.Struct(r)
}

type BalanceResponse struct {
	UserID          string `json:"user_id"`
	PTO             int    `json:"pto"`
	Sick            int    `json:"sick"`
	RemainingPTO    int    `json:"remaining_pto"`
	RemainingSick   int    `json:"remaining_sick"`
	TotalLeaves     int    `json:"total_leaves"`
	BookedLeaves    int    `json:"booked_leaves"`
	AvailableLeaves int    `json:"available_leaves"`
}

func ToBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		UserID:          b.UserID,
		PTO:             b.Allocated[TypePTO],
		Sick:            b.Allocated[TypeSick],
		RemainingPTO:    b.Remaining[TypePTO],
		RemainingSick:   b.Remaining[TypeSick],
		TotalLeaves:     b.TotalAllocated(),
		BookedLeaves:    b.BookedLeaves,
		AvailableLeaves: b.AvailableLeaves,
	}
}
