package hierarchy

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]user.User
	layerHits int

	hierarchyMu sync.Mutex
	lockCalls   int
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func reportsTo(id string) *string { return &id }

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) ListReportIDs(ctx context.Context, managerIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layerHits++

	wanted := make(map[string]bool, len(managerIDs))
	for _, id := range managerIDs {
		wanted[id] = true
	}
	var ids []string
	for _, u := range r.users {
		if u.ReportsTo != nil && wanted[*u.ReportsTo] {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type heldLockKey struct{}

func (r *fakeUserRepo) LockHierarchy(ctx context.Context) error {
	held, ok := ctx.Value(heldLockKey{}).(*bool)
	if !ok {
		return errors.New("hierarchy lock requires a transaction")
	}
	r.hierarchyMu.Lock()
	*held = true

	r.mu.Lock()
	r.lockCalls++
	r.mu.Unlock()
	return nil
}

func (r *fakeUserRepo) UpdateReportsTo(ctx context.Context, userID string, managerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.ReportsTo = managerID
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context, filter scope.Filter) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if filter.Allows(map[scope.Field]string{scope.FieldUser: u.ID}) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// staticScopes returns a fixed filter for every call.
type staticScopes struct {
	filter scope.Filter
}

func (s staticScopes) ScopeFor(ctx context.Context, caller user.Identity, resource scope.Resource) (scope.Filter, error) {
	return s.filter, nil
}

// snapshotTx restores the repo's users when fn fails and releases the
// hierarchy lock when fn returns.
type snapshotTx struct {
	repo *fakeUserRepo
}

func (t snapshotTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	held := false
	defer func() {
		if held {
			t.repo.hierarchyMu.Unlock()
		}
	}()

	t.repo.mu.Lock()
	saved := maps.Clone(t.repo.users)
	t.repo.mu.Unlock()

	if err := fn(context.WithValue(ctx, heldLockKey{}, &held)); err != nil {
		t.repo.mu.Lock()
		t.repo.users = saved
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
	// failAt makes the call with this 1-based index fail.
	failAt int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls == c.failAt {
		return errors.New("redis: connection refused")
	}
	return nil
}

// hrPolicy lets superadmin and hr through.
type hrPolicy struct{}

func (hrPolicy) Can(role user.Role, perm user.Permission) bool {
	return role == user.RoleSuperAdmin || role == user.RoleHR
}

// orgChart builds: m1 -> (d1, d2), d1 -> i1, d2 -> i2, plus an unrelated u9.
func orgChart() *fakeUserRepo {
	return newFakeUserRepo(
		user.User{ID: "m1", Name: "Morgan", Role: user.RoleManager},
		user.User{ID: "d1", Name: "Dana", ReportsTo: reportsTo("m1")},
		user.User{ID: "d2", Name: "Drew", ReportsTo: reportsTo("m1")},
		user.User{ID: "i1", Name: "Ira", ReportsTo: reportsTo("d1")},
		user.User{ID: "i2", Name: "Ivy", ReportsTo: reportsTo("d2")},
		user.User{ID: "u9", Name: "Uma"},
	)
}
