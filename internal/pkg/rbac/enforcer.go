package rbac

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Enforcer wraps a casbin enforcer whose policy lives in memory.
type Enforcer struct {
	casbin *casbin.Enforcer
}

// NewEnforcer builds an enforcer seeded with the given role policy.
func NewEnforcer(policy map[user.Role][]user.Permission) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create rbac enforcer: %w", err)
	}

	for role, perms := range policy {
		for _, p := range perms {
			if _, err := e.AddPolicy(string(role), p.Object, p.Action); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, p, err)
			}
		}
	}

	return &Enforcer{casbin: e}, nil
}

// NewDefaultEnforcer loads user.RolePermissions.
func NewDefaultEnforcer() (*Enforcer, error) {
	return NewEnforcer(user.RolePermissions)
}

// Can implements user.Authorizer. Enforcement errors deny.
func (e *Enforcer) Can(role user.Role, perm user.Permission) bool {
	ok, err := e.casbin.Enforce(string(role), perm.Object, perm.Action)
	if err != nil {
		slog.Error("RBAC enforce failed", "role", role, "permission", perm.String(), "error", err)
		return false
	}
	return ok
}

// Grant adds a permission to a role at runtime.
func (e *Enforcer) Grant(role user.Role, perm user.Permission) error {
	_, err := e.casbin.AddPolicy(string(role), perm.Object, perm.Action)
	return err
}
