package dashboard

// StatsResponse is the landing-page summary, narrowed to what the caller may see.
type StatsResponse struct {
	Date        string          `json:"date"`
	Summary     Summary         `json:"summary"`
	Attendance  AttendanceToday `json:"attendance"`
	ActionItems ActionItems     `json:"action_items"`
}

type Summary struct {
	TotalEmployees   int64 `json:"total_employees"`
	PendingApprovals int64 `json:"pending_approvals"`
}

// AttendanceToday counts today's records by status. Absent also covers
// visible employees with no record yet.
type AttendanceToday struct {
	Present int64 `json:"present"`
	HalfDay int64 `json:"half_day"`
	Leave   int64 `json:"leave"`
	Absent  int64 `json:"absent"`
}

type ActionItems struct {
	Leaves     int64 `json:"leaves"`
	Timesheets int64 `json:"timesheets"`
}
