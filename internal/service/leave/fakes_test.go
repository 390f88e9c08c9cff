package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type fakeRequests struct {
	mu   sync.Mutex
	rows map[string]leave.LeaveRequest
	seq  int

	// beforeLock runs once at the next GetForUpdate, standing in for a
	// writer that committed between the caller's first read and its lock.
	beforeLock func()
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{rows: make(map[string]leave.LeaveRequest)}
}

func (f *fakeRequests) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req.ID = fmt.Sprintf("leave-%d", f.seq)
	f.rows[req.ID] = req
	return req, nil
}

func (f *fakeRequests) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.rows[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (f *fakeRequests) GetForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	hook := f.beforeLock
	f.beforeLock = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.GetByID(ctx, id)
}

func (f *fakeRequests) Update(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[req.ID]; !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	f.rows[req.ID] = req
	return req, nil
}

func (f *fakeRequests) UpdateStatus(ctx context.Context, id string, status leave.Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.rows[id]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = at
	f.rows[id] = req
	return nil
}

func (f *fakeRequests) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return leave.ErrLeaveRequestNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRequests) ListActiveByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range f.rows {
		if req.EmployeeID == employeeID && req.Status.Holds() {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) List(ctx context.Context, q leave.RequestQuery, visible scope.Filter) ([]leave.LeaveRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range f.rows {
		if !visible.Allows(map[scope.Field]string{scope.FieldEmployee: req.EmployeeID}) {
			continue
		}
		if q.EmployeeID != nil && req.EmployeeID != *q.EmployeeID {
			continue
		}
		if q.Status != nil && req.Status != *q.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type fakeBalances struct {
	mu   sync.Mutex
	rows map[string]leave.Balance
}

func newFakeBalances(balances ...leave.Balance) *fakeBalances {
	f := &fakeBalances{rows: make(map[string]leave.Balance)}
	for _, b := range balances {
		f.rows[b.UserID] = b
	}
	return f
}

func (f *fakeBalances) GetForUpdate(ctx context.Context, userID string) (leave.Balance, error) {
	return f.Get(ctx, userID)
}

func (f *fakeBalances) Get(ctx context.Context, userID string) (leave.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[userID]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (f *fakeBalances) Save(ctx context.Context, b leave.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[b.UserID] = b
	return nil
}

func (f *fakeBalances) ListUserIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeBalances) get(userID string) leave.Balance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[userID]
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []leave.HistoryEntry
}

func (f *fakeHistory) Append(ctx context.Context, h leave.HistoryEntry) (leave.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = fmt.Sprintf("hist-%d", len(f.rows)+1)
	f.rows = append(f.rows, h)
	return h, nil
}

func (f *fakeHistory) UpdateStatus(ctx context.Context, leaveID string, status leave.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].LeaveID == leaveID {
			f.rows[i].Status = status
		}
	}
	return nil
}

func (f *fakeHistory) UpdateByLeave(ctx context.Context, h leave.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].LeaveID == h.LeaveID {
			h.ID = f.rows[i].ID
			f.rows[i] = h
			return nil
		}
	}
	return leave.ErrLeaveRequestNotFound
}

func (f *fakeHistory) DeleteByLeave(ctx context.Context, leaveID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, h := range f.rows {
		if h.LeaveID != leaveID {
			kept = append(kept, h)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeHistory) ListByUser(ctx context.Context, userID string) ([]leave.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.HistoryEntry
	for _, h := range f.rows {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeResponses struct {
	mu   sync.Mutex
	rows []leave.Response
}

func (f *fakeResponses) Create(ctx context.Context, r leave.Response) (leave.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = fmt.Sprintf("resp-%d", len(f.rows)+1)
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeResponses) GetByID(ctx context.Context, leaveID, id string) (leave.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.LeaveID == leaveID && r.ID == id {
			return r, nil
		}
	}
	return leave.Response{}, leave.ErrResponseNotFound
}

func (f *fakeResponses) Update(ctx context.Context, r leave.Response) (leave.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == r.ID {
			f.rows[i] = r
			return r, nil
		}
	}
	return leave.Response{}, leave.ErrResponseNotFound
}

func (f *fakeResponses) Delete(ctx context.Context, leaveID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.LeaveID == leaveID && r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return leave.ErrResponseNotFound
}

func (f *fakeResponses) ListByLeave(ctx context.Context, leaveID string) ([]leave.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Response
	for _, r := range f.rows {
		if r.LeaveID == leaveID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeDays records leave days; other attendance methods are unused here.
type fakeDays struct {
	attendance.AttendanceRepository
	mu     sync.Mutex
	marked map[string][]time.Time
}

func newFakeDays() *fakeDays {
	return &fakeDays{marked: make(map[string][]time.Time)}
}

func (f *fakeDays) MarkLeave(ctx context.Context, userID string, day time.Time, leaveRequestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[leaveRequestID] = append(f.marked[leaveRequestID], day)
	return nil
}

func (f *fakeDays) DeleteLeaveDays(ctx context.Context, leaveRequestID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.marked[leaveRequestID]))
	delete(f.marked, leaveRequestID)
	return n, nil
}

func (f *fakeDays) count(leaveRequestID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.marked[leaveRequestID])
}

type fakeUsers struct {
	user.UserRepository
	users map[string]user.User
}

func newFakeUsers(users ...user.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]user.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
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

func (o *fakeOutbox) types() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Type)
	}
	return out
}

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

func (n *fakeNotifier) templates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, r := range n.sent {
		out = append(out, r.Template)
	}
	return out
}

type passThroughTx struct{}

func (passThroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// teamScopes gives the global roles everything, the manager tier its
// listed team and everyone else themselves.
type teamScopes struct {
	team map[string][]string
}

func (s teamScopes) ScopeFor(ctx context.Context, caller user.Identity, resource scope.Resource) (scope.Filter, error) {
	switch {
	case caller.Role == user.RoleSuperAdmin || caller.Role == user.RoleHR:
		return scope.All(), nil
	case caller.Role.IsManagerTier():
		return scope.In(scope.FieldEmployee, append([]string{caller.ID}, s.team[caller.ID]...)...), nil
	default:
		return scope.In(scope.FieldEmployee, caller.ID), nil
	}
}
