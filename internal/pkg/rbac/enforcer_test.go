package rbac

import (
	"testing"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	e, err := NewDefaultEnforcer()
	require.NoError(t, err)

	cases := []struct {
		role user.Role
		perm user.Permission
		want bool
	}{
		{user.RoleSuperAdmin, user.PermAttendanceEdit, true},
		{user.RoleAdmin, user.PermAttendanceEdit, false},
		{user.RoleHR, user.PermAttendanceEdit, false},
		{user.RoleSuperAdmin, user.PermLeaveSetStatus, true},
		{user.RoleAdmin, user.PermLeaveSetStatus, true},
		{user.RoleHR, user.PermLeaveSetStatus, true},
		{user.RoleManager, user.PermLeaveSetStatus, false},
		{user.RoleEmployee, user.PermLeaveSetStatus, false},
		{user.RoleHR, user.PermHolidayManage, true},
		{user.RoleAdmin, user.PermHolidayManage, true},
		{user.RoleManager, user.PermTimesheetReview, true},
		{user.RoleHR, user.PermTimesheetReview, false},
		{user.RoleEmployee, user.PermUserAssignManager, false},
	}
	for _, c := range cases {
		t.Run(string(c.role)+"/"+c.perm.String(), func(t *testing.T) {
			assert.Equal(t, c.want, e.Can(c.role, c.perm))
		})
	}
}

func TestGrant(t *testing.T) {
	e, err := NewEnforcer(map[user.Role][]user.Permission{})
	require.NoError(t, err)

	assert.False(t, e.Can(user.RoleManager, user.PermHolidayManage))
	require.NoError(t, e.Grant(user.RoleManager, user.PermHolidayManage))
	assert.True(t, e.Can(user.RoleManager, user.PermHolidayManage))
}
