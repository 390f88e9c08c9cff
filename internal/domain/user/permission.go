package user

// Permission is an object/action pair checked against the role policy.
type Permission struct {
	Object string
	Action string
}

func (p Permission) String() string {
	return p.Object + "." + p.Action
}

var (
	// Attendance
	PermAttendanceEdit   = Permission{"attendance", "edit"}
	PermAttendanceDelete = Permission{"attendance", "delete"}

	// Leave
	PermLeaveSetStatus       = Permission{"leave", "set_status"}
	PermLeaveAllocate        = Permission{"leave", "allocate"}
	PermLeaveAllocateAny     = Permission{"leave", "allocate_any"}
	PermLeaveDeleteAny       = Permission{"leave", "delete_any"}
	PermLeaveRebuildBalances = Permission{"leave", "rebuild_balances"}
	PermLeaveModerateReplies = Permission{"leave", "moderate_responses"}
	PermHolidayManage        = Permission{"holiday", "manage"}

	// Timesheet
	PermTimesheetReview = Permission{"timesheet", "review"}

	// Org chart
	PermUserAssignManager = Permission{"user", "assign_manager"}
)

// RolePermissions is the default policy loaded into the enforcer.
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermAttendanceEdit,
		PermAttendanceDelete,
		PermLeaveSetStatus,
		PermLeaveAllocate,
		PermLeaveAllocateAny,
		PermLeaveDeleteAny,
		PermLeaveRebuildBalances,
		PermLeaveModerateReplies,
		PermHolidayManage,
		PermTimesheetReview,
		PermUserAssignManager,
	},
	RoleHR: {
		PermLeaveSetStatus,
		PermLeaveAllocate,
		PermLeaveAllocateAny,
		PermLeaveDeleteAny,
		PermLeaveModerateReplies,
		PermHolidayManage,
		PermUserAssignManager,
	},
	RoleAdmin: {
		PermLeaveSetStatus,
		PermLeaveAllocate,
		PermHolidayManage,
		PermTimesheetReview,
	},
	RoleManager: {
		PermLeaveAllocate,
		PermTimesheetReview,
	},
	RoleEmployee: {},
}

// Authorizer answers role/permission questions.
type Authorizer interface {
	Can(role Role, perm Permission) bool
}
