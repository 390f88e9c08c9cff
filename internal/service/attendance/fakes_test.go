package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Record
	seq     int

	// closeRace makes the next CloseSession find the row already closed.
	closeRace bool
}

func newFakeAttendanceRepo(records ...attendance.Record) *fakeAttendanceRepo {
	r := &fakeAttendanceRepo{records: make(map[string]attendance.Record)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *fakeAttendanceRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.UserID == rec.UserID && existing.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
	}
	r.seq++
	rec.ID = fmt.Sprintf("rec-%d", r.seq)
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *fakeAttendanceRepo) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (r *fakeAttendanceRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Date.Equal(date) {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeAttendanceRepo) GetOpenSession(ctx context.Context, userID string) (*attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *attendance.Record
	for _, rec := range r.records {
		if rec.UserID != userID || !rec.IsOpen() {
			continue
		}
		if latest == nil || rec.CheckIn.After(*latest.CheckIn) {
			found := rec
			latest = &found
		}
	}
	return latest, nil
}

func (r *fakeAttendanceRepo) CloseSession(ctx context.Context, rec attendance.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeRace {
		r.closeRace = false
		return false, nil
	}
	stored, ok := r.records[rec.ID]
	if !ok || stored.CheckOut != nil {
		return false, nil
	}
	r.records[rec.ID] = rec
	return true, nil
}

func (r *fakeAttendanceRepo) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *fakeAttendanceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeAttendanceRepo) ListStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.records {
		if rec.IsOpen() && !rec.CheckIn.After(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(*out[j].CheckIn) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAttendanceRepo) List(ctx context.Context, q attendance.RecordQuery, visible scope.Filter) ([]attendance.Record, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.records {
		if !visible.Allows(map[scope.Field]string{scope.FieldUser: rec.UserID}) {
			continue
		}
		if q.UserID != nil && rec.UserID != *q.UserID {
			continue
		}
		if q.From != nil && rec.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.Date.After(*q.To) {
			continue
		}
		if q.Status != nil && rec.Status != *q.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	total := int64(len(out))
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (r *fakeAttendanceRepo) MarkLeave(ctx context.Context, userID string, day time.Time, leaveRequestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.records {
		if rec.UserID == userID && rec.Date.Equal(day) {
			rec.Status = attendance.StatusLeave
			rec.LeaveRequestID = &leaveRequestID
			r.records[id] = rec
			return nil
		}
	}
	r.seq++
	id := fmt.Sprintf("rec-%d", r.seq)
	r.records[id] = attendance.Record{ID: id, UserID: userID, Date: day, Status: attendance.StatusLeave, LeaveRequestID: &leaveRequestID}
	return nil
}

func (r *fakeAttendanceRepo) DeleteLeaveDays(ctx context.Context, leaveRequestID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if rec.Status == attendance.StatusLeave && rec.LeaveRequestID != nil && *rec.LeaveRequestID == leaveRequestID {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeAttendanceRepo) get(id string) attendance.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
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

func (o *fakeOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

// passThroughTx runs fn on the caller's context.
type passThroughTx struct{}

func (passThroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticScopes struct {
	filter scope.Filter
}

func (s staticScopes) ScopeFor(ctx context.Context, caller user.Identity, resource scope.Resource) (scope.Filter, error) {
	return s.filter, nil
}
