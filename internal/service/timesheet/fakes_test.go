package timesheet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type fakeStore struct {
	mu     sync.Mutex
	logs   map[string]timesheet.TimeLog
	sheets map[string]timesheet.Timesheet
	seq    int

	weekMu    sync.Mutex
	weekLocks []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logs:   make(map[string]timesheet.TimeLog),
		sheets: make(map[string]timesheet.Timesheet),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// fakeLogs and fakeSheets share one store so attaching logs is visible to both.
type fakeLogs struct{ *fakeStore }

func (f fakeLogs) Create(ctx context.Context, l timesheet.TimeLog) (timesheet.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = f.nextID("log")
	f.logs[l.ID] = l
	return l, nil
}

func (f fakeLogs) GetByID(ctx context.Context, id string) (timesheet.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logs[id]
	if !ok {
		return timesheet.TimeLog{}, timesheet.ErrTimeLogNotFound
	}
	return l, nil
}

func (f fakeLogs) Update(ctx context.Context, l timesheet.TimeLog) (timesheet.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.logs[l.ID]
	if !ok {
		return timesheet.TimeLog{}, timesheet.ErrTimeLogNotFound
	}
	if stored.IsAddedToTimesheet {
		return timesheet.TimeLog{}, timesheet.ErrTimeLogLocked
	}
	f.logs[l.ID] = l
	return l, nil
}

func (f fakeLogs) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.logs[id]
	if !ok {
		return timesheet.ErrTimeLogNotFound
	}
	if stored.IsAddedToTimesheet {
		return timesheet.ErrTimeLogLocked
	}
	delete(f.logs, id)
	return nil
}

func (f fakeLogs) ListByEmployee(ctx context.Context, employeeID string, from, to *time.Time) ([]timesheet.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []timesheet.TimeLog
	for _, l := range f.logs {
		if l.EmployeeID != employeeID {
			continue
		}
		if from != nil && l.Date.Before(*from) {
			continue
		}
		if to != nil && l.Date.After(*to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeLogs) ListByIDs(ctx context.Context, ids []string) ([]timesheet.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []timesheet.TimeLog
	for _, id := range ids {
		if l, ok := f.logs[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f fakeLogs) AttachToTimesheet(ctx context.Context, ids []string, timesheetID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		l, ok := f.logs[id]
		if !ok || l.IsAddedToTimesheet {
			continue
		}
		tsID := timesheetID
		l.IsAddedToTimesheet = true
		l.TimesheetID = &tsID
		f.logs[id] = l
		n++
	}
	return n, nil
}

type fakeSheets struct{ *fakeStore }

func (f fakeSheets) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts.ID = f.nextID("ts")
	f.sheets[ts.ID] = ts
	return ts, nil
}

func (f fakeSheets) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.sheets[id]
	if !ok {
		return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
	}
	for _, lid := range ts.TimeLogIDs {
		ts.TimeLogs = append(ts.TimeLogs, f.logs[lid])
	}
	return ts, nil
}

func (f fakeSheets) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*timesheet.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ts := range f.sheets {
		if ts.EmployeeID == employeeID && ts.Date.Equal(date) {
			found := ts
			return &found, nil
		}
	}
	return nil, nil
}

type heldWeekKey struct{}

func (f fakeSheets) LockWeek(ctx context.Context, employeeID string, weekStart time.Time) error {
	held, ok := ctx.Value(heldWeekKey{}).(*bool)
	if !ok {
		return errors.New("week lock requires a transaction")
	}
	if !*held {
		f.weekMu.Lock()
		*held = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekLocks = append(f.weekLocks, employeeID+"@"+weekStart.Format(time.DateOnly))
	return nil
}

func (f fakeSheets) WeeklyHours(ctx context.Context, employeeID string, from, to time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0.0
	for _, ts := range f.sheets {
		if ts.EmployeeID == employeeID && ts.Status.CountsTowardCap() && !ts.Date.Before(from) && !ts.Date.After(to) {
			total += ts.SubmittedHours
		}
	}
	return total, nil
}

func (f fakeSheets) Review(ctx context.Context, ts timesheet.Timesheet) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sheets[ts.ID]
	if !ok || stored.Status != timesheet.StatusPending {
		return false, nil
	}
	stored.Status = ts.Status
	stored.ApprovedHours = ts.ApprovedHours
	stored.ReviewedBy = ts.ReviewedBy
	stored.ReviewedAt = ts.ReviewedAt
	f.sheets[ts.ID] = stored
	return true, nil
}

func (f fakeSheets) List(ctx context.Context, q timesheet.TimesheetQuery, visible scope.Filter) ([]timesheet.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []timesheet.Timesheet
	for _, ts := range f.sheets {
		if !visible.Allows(map[scope.Field]string{scope.FieldEmployee: ts.EmployeeID}) {
			continue
		}
		if q.EmployeeID != nil && ts.EmployeeID != *q.EmployeeID {
			continue
		}
		if q.From != nil && ts.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && ts.Date.After(*q.To) {
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (f *fakeStore) status(id string) timesheet.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[id].Status
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []event.Event
}

func (o *fakeOutbox) Create(ctx context.Context, evt event.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, evt)
	return nil
}

func (o *fakeOutbox) ListPending(ctx context.Context, limit int) ([]event.Event, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkSent(ctx context.Context, id string) error { return nil }

func (o *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.EmailRequest
}

func (n *fakeNotifier) QueueEmail(ctx context.Context, req notification.EmailRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return nil
}

func (n *fakeNotifier) Stop() {}

type fakeUsers struct {
	user.UserRepository
}

func (fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

// lockingTx runs fn on the caller's goroutine and releases the week lock
// when fn returns. Writes are not rolled back.
type lockingTx struct {
	store *fakeStore
}

func (t lockingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	held := false
	defer func() {
		if held {
			t.store.weekMu.Unlock()
		}
	}()
	return fn(context.WithValue(ctx, heldWeekKey{}, &held))
}

// teamScopes mirrors the timesheet rule: superadmin sees all, the manager
// tier its team, everyone else themselves.
type teamScopes struct {
	team map[string][]string
}

func (s teamScopes) ScopeFor(ctx context.Context, caller user.Identity, resource scope.Resource) (scope.Filter, error) {
	switch {
	case caller.Role == user.RoleSuperAdmin:
		return scope.All(), nil
	case caller.Role.IsManagerTier():
		return scope.In(scope.FieldEmployee, append([]string{caller.ID}, s.team[caller.ID]...)...), nil
	default:
		return scope.In(scope.FieldEmployee, caller.ID), nil
	}
}
