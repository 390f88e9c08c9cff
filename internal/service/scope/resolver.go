package scope

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type rule struct {
	global     []user.Role // unrestricted
	denied     []user.Role // see nothing, checked before global
	technician bool        // technician flag overrides the team view
	teamField  scope.Field
	selfField  scope.Field
}

var rules = map[scope.Resource]rule{
	scope.ResourceAttendance: {
		global:    []user.Role{user.RoleSuperAdmin, user.RoleHR},
		teamField: scope.FieldUser,
		selfField: scope.FieldUser,
	},
	scope.ResourceUserList: {
		global:    []user.Role{user.RoleSuperAdmin, user.RoleHR},
		teamField: scope.FieldUser,
		selfField: scope.FieldUser,
	},
	scope.ResourceLeave: {
		global:    []user.Role{user.RoleSuperAdmin, user.RoleHR},
		teamField: scope.FieldEmployee,
		selfField: scope.FieldEmployee,
	},
	scope.ResourceTicket: {
		global:     []user.Role{user.RoleSuperAdmin},
		denied:     []user.Role{user.RoleHR},
		technician: true,
		teamField:  scope.FieldCreatedBy,
		selfField:  scope.FieldCreatedBy,
	},
	scope.ResourceTimesheet: {
		global:    []user.Role{user.RoleSuperAdmin},
		teamField: scope.FieldEmployee,
		selfField: scope.FieldEmployee,
	},
}

type ScopeResolverImpl struct {
	tree hierarchy.Resolver
}

func NewScopeResolver(tree hierarchy.Resolver) scope.Resolver {
	return &ScopeResolverImpl{tree: tree}
}

// ScopeFor implements scope.Resolver. Every path that cannot positively
// establish a wider view ends in the self-only filter.
func (r *ScopeResolverImpl) ScopeFor(ctx context.Context, caller user.Identity, resource scope.Resource) (scope.Filter, error) {
	rl, ok := rules[resource]
	if !ok {
		return scope.None(), scope.ErrUnknownResource
	}
	if !caller.Valid() {
		return scope.None(), nil
	}

	switch {
	case hasRole(rl.denied, caller.Role):
		return scope.None(), nil
	case hasRole(rl.global, caller.Role):
		return scope.All(), nil
	case rl.technician && caller.IsTechnician:
		return scope.In(scope.FieldAssignedTo, caller.ID).Or(scope.FieldCreatedBy, caller.ID), nil
	case caller.Role.IsManagerTier():
		ids, err := r.tree.SubtreeOf(ctx, caller.ID)
		if err != nil {
			return scope.None(), fmt.Errorf("failed to resolve team of %s: %w", caller.ID, err)
		}
		if len(ids) == 0 {
			ids = []string{caller.ID}
		}
		return scope.In(rl.teamField, ids...), nil
	default:
		return scope.In(rl.selfField, caller.ID), nil
	}
}

func hasRole(roles []user.Role, role user.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
