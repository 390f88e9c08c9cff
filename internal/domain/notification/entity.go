package notification

const (
	TemplateLeaveCreated    = "leave_created.html"
	TemplateLeaveStatus     = "leave_status.html"
	TemplateLeaveResponse   = "leave_response.html"
	TemplateTimesheetStatus = "timesheet_status.html"
)

// Header colors
const (
	ColorInfo     = "#3a7ca5"
	ColorApproved = "#28a745"
	ColorRejected = "#dc3545"
	ColorPending  = "#ffc107"
	ColorNeutral  = "#6c757d"
)

// StatusColor picks the header color for a review outcome.
func StatusColor(status string) string {
	switch status {
	case "Approved":
		return ColorApproved
	case "Rejected":
		return ColorRejected
	default:
		return ColorPending
	}
}

// LeaveEmail feeds every leave template.
type LeaveEmail struct {
	Title        string
	Color        string
	EmployeeName string
	LeaveType    string
	Status       string
	StartDate    string
	EndDate      string
	Days         int
	Reason       string
	Note         string
	AuthorName   string
	AuthorRole   string
	Content      string
}

type TimesheetEmail struct {
	Title          string
	Color          string
	EmployeeName   string
	Name           string
	Date           string
	Status         string
	SubmittedHours float64
	ApprovedHours  float64
	ReviewerName   string
}
