package timesheet

import (
	"math"
	"strings"
	"time"
)

const (
	// WeeklyHourCap bounds the Pending and Approved hours in one ISO week.
	WeeklyHourCap = 40.0
	MaxLogHours   = 24.0
)

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

// CountsTowardCap reports whether a timesheet in this status uses weekly hours.
func (s Status) CountsTowardCap() bool {
	return s == StatusPending || s == StatusApproved
}

// TimeLog is one block of work. Date is the start of its business day.
type TimeLog struct {
	ID                 string
	EmployeeID         string
	Job                string
	Date               time.Time
	Hours              float64
	Description        string
	TimesheetID        *string
	IsAddedToTimesheet bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Timesheet struct {
	ID             string
	EmployeeID     string
	EmployeeName   string
	Email          string
	Name           string
	Description    string
	Date           time.Time
	SubmittedHours float64
	ApprovedHours  *float64
	Status         Status
	ReviewedBy     *string
	ReviewedAt     *time.Time
	TimeLogIDs     []string
	TimeLogs       []TimeLog
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SumHours totals the logs, rounded to hundredths.
func SumHours(logs []TimeLog) float64 {
	total := 0.0
	for _, l := range logs {
		total += l.Hours
	}
	return Round(total)
}

// RemainingHours is what is left of the weekly cap.
func RemainingHours(weeklyTotal float64) float64 {
	return Round(math.Max(0, WeeklyHourCap-weeklyTotal))
}

func Round(h float64) float64 {
	return math.Round(h*100) / 100
}
