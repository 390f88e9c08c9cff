package attendance

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusHalfDay Status = "Half Day"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
)

var statuses = []Status{StatusPresent, StatusHalfDay, StatusAbsent, StatusLeave}

// ParseStatus accepts the display form case-insensitively.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Record is one user's attendance for one business day. Date holds the
// start of that day in the business zone.
type Record struct {
	ID             string
	UserID         string
	Date           time.Time
	CheckIn        *time.Time
	CheckOut       *time.Time
	TotalHours     float64
	Status         Status
	Notes          string
	AutoCheckedOut bool
	LeaveRequestID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// DTO
	UserName *string
}

// IsOpen reports whether the record is an active session.
func (r Record) IsOpen() bool {
	return r.CheckIn != nil && r.CheckOut == nil
}
