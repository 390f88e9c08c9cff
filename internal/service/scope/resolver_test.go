package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTree map[string][]string

func (m mapTree) SubtreeOf(ctx context.Context, userID string) ([]string, error) {
	return m[userID], nil
}

type brokenTree struct{}

func (brokenTree) SubtreeOf(ctx context.Context, userID string) ([]string, error) {
	return nil, hierarchy.ErrCycleDetected
}

var team = mapTree{"m1": {"m1", "d1", "d2", "i1", "i2"}}

func TestScopeFor_GlobalRoles(t *testing.T) {
	r := NewScopeResolver(team)
	ctx := context.Background()

	for _, res := range []scope.Resource{scope.ResourceAttendance, scope.ResourceUserList, scope.ResourceLeave, scope.ResourceTicket, scope.ResourceTimesheet} {
		f, err := r.ScopeFor(ctx, user.Identity{ID: "s1", Role: user.RoleSuperAdmin}, res)
		require.NoError(t, err)
		assert.True(t, f.Unrestricted, "superadmin on %s", res)
	}

	for _, res := range []scope.Resource{scope.ResourceAttendance, scope.ResourceUserList, scope.ResourceLeave} {
		f, err := r.ScopeFor(ctx, user.Identity{ID: "h1", Role: user.RoleHR}, res)
		require.NoError(t, err)
		assert.True(t, f.Unrestricted, "hr on %s", res)
	}
}

func TestScopeFor_HRDeniedTickets(t *testing.T) {
	r := NewScopeResolver(team)

	f, err := r.ScopeFor(context.Background(), user.Identity{ID: "h1", Role: user.RoleHR, IsTechnician: true}, scope.ResourceTicket)
	require.NoError(t, err)
	assert.True(t, f.DeniesAll())
	assert.False(t, f.Allows(map[scope.Field]string{scope.FieldCreatedBy: "h1", scope.FieldAssignedTo: "h1"}))
}

func TestScopeFor_HRTimesheetIsSelf(t *testing.T) {
	r := NewScopeResolver(team)

	f, err := r.ScopeFor(context.Background(), user.Identity{ID: "h1", Role: user.RoleHR}, scope.ResourceTimesheet)
	require.NoError(t, err)
	assert.Equal(t, scope.In(scope.FieldEmployee, "h1"), f)
}

func TestScopeFor_ManagerTier(t *testing.T) {
	r := NewScopeResolver(team)
	ctx := context.Background()
	manager := user.Identity{ID: "m1", Role: user.RoleManager}

	cases := []struct {
		resource scope.Resource
		field    scope.Field
	}{
		{scope.ResourceAttendance, scope.FieldUser},
		{scope.ResourceUserList, scope.FieldUser},
		{scope.ResourceLeave, scope.FieldEmployee},
		{scope.ResourceTicket, scope.FieldCreatedBy},
		{scope.ResourceTimesheet, scope.FieldEmployee},
	}
	for _, c := range cases {
		t.Run(string(c.resource), func(t *testing.T) {
			f, err := r.ScopeFor(ctx, manager, c.resource)
			require.NoError(t, err)
			require.Len(t, f.AnyOf, 1)
			assert.Equal(t, c.field, f.AnyOf[0].Field)
			assert.Len(t, f.AnyOf[0].IDs, 5)
			assert.True(t, f.Allows(map[scope.Field]string{c.field: "i2"}))
			assert.False(t, f.Allows(map[scope.Field]string{c.field: "u9"}))
		})
	}

	admin := user.Identity{ID: "m1", Role: user.RoleAdmin}
	f, err := r.ScopeFor(ctx, admin, scope.ResourceLeave)
	require.NoError(t, err)
	assert.Contains(t, f.AnyOf[0].IDs, "m1")
}

func TestScopeFor_TechnicianTickets(t *testing.T) {
	r := NewScopeResolver(team)
	ctx := context.Background()

	for _, role := range []user.Role{user.RoleEmployee, user.RoleManager, user.RoleAdmin} {
		f, err := r.ScopeFor(ctx, user.Identity{ID: "m1", Role: role, IsTechnician: true}, scope.ResourceTicket)
		require.NoError(t, err)
		assert.Equal(t, scope.In(scope.FieldAssignedTo, "m1").Or(scope.FieldCreatedBy, "m1"), f, "role %s", role)
	}

	// The flag does nothing outside tickets.
	f, err := r.ScopeFor(ctx, user.Identity{ID: "e1", Role: user.RoleEmployee, IsTechnician: true}, scope.ResourceLeave)
	require.NoError(t, err)
	assert.Equal(t, scope.In(scope.FieldEmployee, "e1"), f)
}

func TestScopeFor_EmployeeSelf(t *testing.T) {
	r := NewScopeResolver(team)
	ctx := context.Background()
	emp := user.Identity{ID: "e1", Role: user.RoleEmployee}

	f, _ := r.ScopeFor(ctx, emp, scope.ResourceAttendance)
	assert.Equal(t, scope.In(scope.FieldUser, "e1"), f)
	f, _ = r.ScopeFor(ctx, emp, scope.ResourceLeave)
	assert.Equal(t, scope.In(scope.FieldEmployee, "e1"), f)
	f, _ = r.ScopeFor(ctx, emp, scope.ResourceTicket)
	assert.Equal(t, scope.In(scope.FieldCreatedBy, "e1"), f)
}

func TestScopeFor_FailsClosed(t *testing.T) {
	r := NewScopeResolver(team)
	ctx := context.Background()

	f, err := r.ScopeFor(ctx, user.Identity{}, scope.ResourceAttendance)
	require.NoError(t, err)
	assert.True(t, f.DeniesAll())

	// A role that never went through ParseRole gets self scope.
	f, err = r.ScopeFor(ctx, user.Identity{ID: "x", Role: user.Role("Super Admin")}, scope.ResourceLeave)
	require.NoError(t, err)
	assert.Equal(t, scope.In(scope.FieldEmployee, "x"), f)

	f, err = r.ScopeFor(ctx, user.Identity{ID: "x", Role: user.RoleSuperAdmin}, scope.Resource("payroll"))
	assert.ErrorIs(t, err, scope.ErrUnknownResource)
	assert.True(t, f.DeniesAll())
}

func TestScopeFor_ManagerWithoutRecordSeesSelf(t *testing.T) {
	r := NewScopeResolver(mapTree{})

	f, err := r.ScopeFor(context.Background(), user.Identity{ID: "m7", Role: user.RoleManager}, scope.ResourceAttendance)
	require.NoError(t, err)
	assert.Equal(t, scope.In(scope.FieldUser, "m7"), f)
}

func TestScopeFor_CyclePropagates(t *testing.T) {
	r := NewScopeResolver(brokenTree{})

	f, err := r.ScopeFor(context.Background(), user.Identity{ID: "m1", Role: user.RoleAdmin}, scope.ResourceLeave)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hierarchy.ErrCycleDetected))
	assert.True(t, f.DeniesAll())
}
