package leave

import (
	"strings"
	"time"
)

type Type string

const (
	TypePTO  Type = "PTO"
	TypeSick Type = "Sick"
)

var Types = []Type{TypePTO, TypeSick}

// ParseType accepts "pto", "PTO", "sick" and so on.
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Holds reports whether a request in this status keeps its days booked.
func (s Status) Holds() bool {
	return s == StatusPending || s == StatusApproved
}

// LeaveRequest covers the business days [StartDate, EndDate], both stored as
// the start of the day in the business zone.
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	Email        string
	LeaveType    Type
	StartDate    time.Time
	EndDate      time.Time
	Days         int
	Reason       string
	Status       Status
	AppliedAt    time.Time
	UpdatedAt    time.Time
}

// Overlaps reports whether the inclusive ranges intersect.
func (r LeaveRequest) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !start.After(r.EndDate)
}

// Response is a comment on a leave request. System notes are written when
// the status changes without a reviewer note.
type Response struct {
	ID           string
	LeaveID      string
	AuthorID     string
	AuthorName   string
	AuthorRole   string
	Content      string
	IsSystemNote bool
	IsEdited     bool
	EditedAt     *time.Time
	CreatedAt    time.Time
}

// HistoryEntry is one ledger row per leave request. Rebuilding a balance
// replays these rows.
type HistoryEntry struct {
	ID        string
	UserID    string
	LeaveID   string
	LeaveType Type
	StartDate time.Time
	EndDate   time.Time
	DaysTaken int
	Status    Status
	Reason    string
	CreatedAt time.Time
}
