package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Hierarchy(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(setup.DB)
	directory := postgresql.NewDirectoryRepository(setup.DB)

	boss := setup.CreateUser(t, "boss", "admin", nil, 0, 0)
	a := setup.CreateUser(t, "alice", "Employee", &boss, 0, 0)
	b := setup.CreateUser(t, "bob", "employee", &boss, 0, 0)
	c := setup.CreateUser(t, "carol", "employee", &a, 0, 0)

	reports, err := repo.ListReportIDs(ctx, []string{boss})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, reports)

	u, err := repo.GetByID(ctx, boss)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)

	admins, err := repo.ListByRoles(ctx, []user.Role{user.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, boss, admins[0].ID)

	require.NoError(t, repo.UpdateReportsTo(ctx, c, &b))
	reports, err = repo.ListReportIDs(ctx, []string{b})
	require.NoError(t, err)
	assert.Equal(t, []string{c}, reports)

	visible, err := directory.ListUsers(ctx, scope.In(scope.FieldUser, a, c))
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	none, err := directory.ListUsers(ctx, scope.None())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestAdvisoryLocksRequireTransaction(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tx := postgresql.NewTxManager(setup.DB)
	users := postgresql.NewUserRepository(setup.DB)
	sheets := postgresql.NewTimesheetRepository(setup.DB)

	alice := setup.CreateUser(t, "alice", "employee", nil, 5, 5)
	monday, _ := clock.Default().ParseDate("2024-01-15")

	assert.Error(t, users.LockHierarchy(ctx))
	assert.Error(t, sheets.LockWeek(ctx, alice, monday))

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := users.LockHierarchy(ctx); err != nil {
			return err
		}
		// Advisory locks are re-entrant within one session.
		if err := sheets.LockWeek(ctx, alice, monday); err != nil {
			return err
		}
		return sheets.LockWeek(ctx, alice, monday)
	})
	require.NoError(t, err)
}

func TestAttendanceRepository_SingleOpenSession(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	clk := clock.Default()

	userID := setup.CreateUser(t, "alice", "employee", nil, 0, 0)
	monday, err := clk.ParseDate("2024-01-15")
	require.NoError(t, err)
	checkIn := monday.Add(9 * time.Hour)

	rec, err := repo.Create(ctx, attendance.Record{UserID: userID, Date: monday, CheckIn: &checkIn, Status: attendance.StatusPresent})
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.Record{UserID: userID, Date: monday, CheckIn: &checkIn, Status: attendance.StatusPresent})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	tuesday := monday.AddDate(0, 0, 1)
	tuesdayIn := tuesday.Add(9 * time.Hour)
	_, err = repo.Create(ctx, attendance.Record{UserID: userID, Date: tuesday, CheckIn: &tuesdayIn, Status: attendance.StatusPresent})
	assert.ErrorIs(t, err, attendance.ErrActiveSession)

	open, err := repo.GetOpenSession(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, rec.ID, open.ID)

	stale, err := repo.ListStaleOpen(ctx, checkIn.Add(12*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	checkOut := checkIn.Add(8*time.Hour + 30*time.Minute)
	closed := *open
	closed.CheckOut = &checkOut
	closed.TotalHours = 8.5
	closed.Status = attendance.StatusPresent

	won, err := repo.CloseSession(ctx, closed)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.CloseSession(ctx, closed)
	require.NoError(t, err)
	assert.False(t, won, "second close must lose")

	open, err = repo.GetOpenSession(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestAttendanceRepository_LeaveDaysAndScopedList(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	clk := clock.Default()

	alice := setup.CreateUser(t, "alice", "employee", nil, 5, 5)
	bob := setup.CreateUser(t, "bob", "employee", nil, 5, 5)
	start, _ := clk.ParseDate("2024-01-15")
	end, _ := clk.ParseDate("2024-01-16")

	lr, err := requests.Create(ctx, leave.LeaveRequest{
		EmployeeID: alice, LeaveType: leave.TypePTO, StartDate: start, EndDate: end,
		Days: 2, Status: leave.StatusPending, AppliedAt: clk.Now(),
	})
	require.NoError(t, err)

	for _, day := range clk.BusinessDaysBetween(start, end) {
		require.NoError(t, repo.MarkLeave(ctx, alice, day, lr.ID))
	}
	in := start.Add(9 * time.Hour)
	_, err = repo.Create(ctx, attendance.Record{UserID: bob, Date: start, CheckIn: &in, Status: attendance.StatusPresent})
	require.NoError(t, err)

	records, total, err := repo.List(ctx, attendance.RecordQuery{}, scope.In(scope.FieldUser, alice))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, rec := range records {
		assert.Equal(t, attendance.StatusLeave, rec.Status)
	}

	removed, err := repo.DeleteLeaveDays(ctx, lr.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, total, err = repo.List(ctx, attendance.RecordQuery{}, scope.All())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAttendanceRepository_LeaveDaysKeepExistingRecords(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	clk := clock.Default()

	alice := setup.CreateUser(t, "alice", "employee", nil, 5, 5)
	bob := setup.CreateUser(t, "bob", "employee", nil, 5, 5)
	start, _ := clk.ParseDate("2024-01-15")
	end, _ := clk.ParseDate("2024-01-16")

	in := start.Add(9 * time.Hour)
	out := start.Add(17 * time.Hour)
	_, err := repo.Create(ctx, attendance.Record{UserID: alice, Date: start, CheckIn: &in, CheckOut: &out, TotalHours: 8, Status: attendance.StatusHalfDay})
	require.NoError(t, err)
	_, err = repo.Create(ctx, attendance.Record{UserID: bob, Date: start, CheckIn: &in, Status: attendance.StatusPresent})
	require.NoError(t, err)

	aliceLeave, err := requests.Create(ctx, leave.LeaveRequest{
		EmployeeID: alice, LeaveType: leave.TypePTO, StartDate: start, EndDate: end,
		Days: 2, Status: leave.StatusPending, AppliedAt: clk.Now(),
	})
	require.NoError(t, err)
	bobLeave, err := requests.Create(ctx, leave.LeaveRequest{
		EmployeeID: bob, LeaveType: leave.TypePTO, StartDate: start, EndDate: start,
		Days: 1, Status: leave.StatusPending, AppliedAt: clk.Now(),
	})
	require.NoError(t, err)

	for _, day := range clk.BusinessDaysBetween(start, end) {
		require.NoError(t, repo.MarkLeave(ctx, alice, day, aliceLeave.ID))
	}
	require.NoError(t, repo.MarkLeave(ctx, bob, start, bobLeave.ID))

	converted, err := repo.GetByUserAndDate(ctx, alice, start)
	require.NoError(t, err)
	require.NotNil(t, converted)
	assert.Equal(t, attendance.StatusLeave, converted.Status)

	open, err := repo.GetByUserAndDate(ctx, bob, start)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.True(t, open.IsOpen())
	assert.Equal(t, attendance.StatusPresent, open.Status)
	assert.Nil(t, open.LeaveRequestID)

	touched, err := repo.DeleteLeaveDays(ctx, aliceLeave.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, touched)

	restored, err := repo.GetByUserAndDate(ctx, alice, start)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, attendance.StatusHalfDay, restored.Status)
	assert.Nil(t, restored.LeaveRequestID)
	assert.InDelta(t, 8, restored.TotalHours, 0.001)

	gone, err := repo.GetByUserAndDate(ctx, alice, end)
	require.NoError(t, err)
	assert.Nil(t, gone)

	touched, err = repo.DeleteLeaveDays(ctx, bobLeave.ID)
	require.NoError(t, err)
	assert.Zero(t, touched)

	open, err = repo.GetByUserAndDate(ctx, bob, start)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.True(t, open.IsOpen())
}

func TestDashboardRepository_ScopedCounts(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewDashboardRepository(setup.DB)
	attendanceRepo := postgresql.NewAttendanceRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	clk := clock.Default()

	alice := setup.CreateUser(t, "alice", "employee", nil, 5, 5)
	bob := setup.CreateUser(t, "bob", "employee", nil, 5, 5)
	day, _ := clk.ParseDate("2024-01-15")

	for _, id := range []string{alice, bob} {
		_, err := requests.Create(ctx, leave.LeaveRequest{
			EmployeeID: id, LeaveType: leave.TypePTO, StartDate: day.AddDate(0, 1, 0), EndDate: day.AddDate(0, 1, 0),
			Days: 1, Status: leave.StatusPending, AppliedAt: clk.Now(),
		})
		require.NoError(t, err)
	}
	in := day.Add(9 * time.Hour)
	_, err := attendanceRepo.Create(ctx, attendance.Record{UserID: alice, Date: day, CheckIn: &in, Status: attendance.StatusPresent})
	require.NoError(t, err)
	require.NoError(t, attendanceRepo.MarkLeave(ctx, bob, day, "00000000-0000-0000-0000-000000000001"))

	users, err := repo.CountUsers(ctx, scope.In(scope.FieldUser, alice))
	require.NoError(t, err)
	assert.EqualValues(t, 1, users)

	pending, err := repo.CountPendingLeaves(ctx, scope.All())
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending)

	pending, err = repo.CountPendingLeaves(ctx, scope.In(scope.FieldEmployee, bob))
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	sheets, err := repo.CountPendingTimesheets(ctx, scope.All())
	require.NoError(t, err)
	assert.Zero(t, sheets)

	byStatus, err := repo.AttendanceByStatus(ctx, day, scope.All())
	require.NoError(t, err)
	assert.EqualValues(t, 1, byStatus[attendance.StatusPresent])
	assert.EqualValues(t, 1, byStatus[attendance.StatusLeave])

	byStatus, err = repo.AttendanceByStatus(ctx, day, scope.In(scope.FieldUser, alice))
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)
}

func TestLeaveLedger_RoundTrip(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tx := postgresql.NewTxManager(setup.DB)
	balances := postgresql.NewLeaveBalanceRepository(setup.DB)
	history := postgresql.NewLeaveHistoryRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	clk := clock.Default()

	alice := setup.CreateUser(t, "alice", "employee", nil, 5, 3)

	_, err := balances.GetForUpdate(ctx, alice)
	assert.Error(t, err, "locking outside a transaction must fail")

	start, _ := clk.ParseDate("2024-02-05")
	end, _ := clk.ParseDate("2024-02-07")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := balances.GetForUpdate(ctx, alice)
		if err != nil {
			return err
		}
		b, err = leave.Apply(b, leave.TypePTO, 3)
		if err != nil {
			return err
		}
		if err := balances.Save(ctx, b); err != nil {
			return err
		}
		lr, err := requests.Create(ctx, leave.LeaveRequest{
			EmployeeID: alice, LeaveType: leave.TypePTO, StartDate: start, EndDate: end,
			Days: 3, Status: leave.StatusPending, AppliedAt: clk.Now(),
		})
		if err != nil {
			return err
		}
		_, err = history.Append(ctx, leave.HistoryEntry{
			UserID: alice, LeaveID: lr.ID, LeaveType: lr.LeaveType, StartDate: start, EndDate: end,
			DaysTaken: 3, Status: lr.Status,
		})
		return err
	})
	require.NoError(t, err)

	b, err := balances.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Remaining[leave.TypePTO])
	assert.Equal(t, 3, b.BookedLeaves)
	assert.True(t, b.Consistent())

	active, err := requests.ListActiveByEmployee(ctx, alice)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alice", active[0].EmployeeName)

	entries, err := history.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rebuilt, drift := leave.Rebuild(b, entries)
	assert.False(t, drift.Changed)
	assert.Equal(t, b.Remaining, rebuilt.Remaining)

	listed, total, err := requests.List(ctx, leave.RequestQuery{Limit: 10}, scope.In(scope.FieldEmployee, alice))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, listed, 1)
}

func TestTimesheetRepository_AttachAndReview(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	logs := postgresql.NewTimeLogRepository(setup.DB)
	sheets := postgresql.NewTimesheetRepository(setup.DB)
	clk := clock.Default()

	alice := setup.CreateUser(t, "alice", "employee", nil, 0, 0)
	mgr := setup.CreateUser(t, "mgr", "manager", nil, 0, 0)
	day, _ := clk.ParseDate("2024-01-15")
	now := clk.Now()

	l, err := logs.Create(ctx, timesheet.TimeLog{EmployeeID: alice, Job: "API", Date: day, Hours: 6, CreatedAt: now})
	require.NoError(t, err)

	ts, err := sheets.Create(ctx, timesheet.Timesheet{
		EmployeeID: alice, Name: "Monday", Date: day, SubmittedHours: 6, Status: timesheet.StatusPending, CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = sheets.Create(ctx, timesheet.Timesheet{
		EmployeeID: alice, Name: "Again", Date: day, SubmittedHours: 1, Status: timesheet.StatusPending, CreatedAt: now,
	})
	assert.ErrorIs(t, err, timesheet.ErrDuplicateTimesheet)

	n, err := logs.AttachToTimesheet(ctx, []string{l.ID}, ts.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = logs.AttachToTimesheet(ctx, []string{l.ID}, ts.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	assert.ErrorIs(t, logs.Delete(ctx, l.ID), timesheet.ErrTimeLogLocked)

	hours, err := sheets.WeeklyHours(ctx, alice, clk.StartOfWeek(day), clk.EndOfWeek(day))
	require.NoError(t, err)
	assert.Equal(t, 6.0, hours)

	approved := 5.5
	reviewedAt := clk.Now()
	ts.Status = timesheet.StatusApproved
	ts.ApprovedHours = &approved
	ts.ReviewedBy = &mgr
	ts.ReviewedAt = &reviewedAt
	ts.UpdatedAt = reviewedAt

	won, err := sheets.Review(ctx, ts)
	require.NoError(t, err)
	assert.True(t, won)
	won, err = sheets.Review(ctx, ts)
	require.NoError(t, err)
	assert.False(t, won)

	got, err := sheets.GetByID(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, got.Status)
	require.Len(t, got.TimeLogs, 1)
	assert.True(t, got.TimeLogs[0].IsAddedToTimesheet)

	hidden, err := sheets.List(ctx, timesheet.TimesheetQuery{}, scope.In(scope.FieldEmployee, mgr))
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestOutboxRepository_Retries(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewOutboxRepository(setup.DB)

	evt, err := event.New(event.AggregateLeave, "leave-1", event.TypeLeaveCreated, map[string]string{"id": "leave-1"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, evt))

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.MarkFailed(ctx, evt.ID, "broker down"))
	}
	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 4, pending[0].RetryCount)
	assert.JSONEq(t, `{"id":"leave-1"}`, string(pending[0].Payload))

	require.NoError(t, repo.MarkFailed(ctx, evt.ID, "broker down"))
	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
