package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

type HierarchyServiceImpl struct {
	user.UserRepository
	hierarchy.DirectoryRepository
	tree        hierarchy.Resolver
	scopes      scope.Resolver
	invalidator hierarchy.Invalidator
	authz       user.Authorizer
	txManager   database.TxManager
}

// NewHierarchyService wires the org-chart service. tree must read the
// database directly so cycle checks see the latest edges; invalidator may be
// nil when no cache runs.
func NewHierarchyService(
	userRepo user.UserRepository,
	directoryRepo hierarchy.DirectoryRepository,
	tree *TreeResolver,
	scopes scope.Resolver,
	invalidator hierarchy.Invalidator,
	authz user.Authorizer,
	txManager database.TxManager,
) hierarchy.Service {
	return &HierarchyServiceImpl{
		UserRepository:      userRepo,
		DirectoryRepository: directoryRepo,
		tree:                tree,
		scopes:              scopes,
		invalidator:         invalidator,
		authz:               authz,
		txManager:           txManager,
	}
}

// Team implements hierarchy.Service.
func (s *HierarchyServiceImpl) Team(ctx context.Context, caller user.Identity, userID string) ([]user.UserResponse, error) {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceUserList)
	if err != nil {
		return nil, err
	}
	if !filter.Allows(map[scope.Field]string{scope.FieldUser: userID}) {
		return nil, scope.ErrOutOfScope
	}

	ids, err := s.tree.SubtreeOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, user.ErrUserNotFound
	}

	members, err := s.UserRepository.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}

	return toResponses(members), nil
}

// ListVisibleUsers implements hierarchy.Service.
func (s *HierarchyServiceImpl) ListVisibleUsers(ctx context.Context, caller user.Identity) ([]user.UserResponse, error) {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceUserList)
	if err != nil {
		return nil, err
	}

	users, err := s.DirectoryRepository.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toResponses(users), nil
}

// AssignManager implements hierarchy.Service.
func (s *HierarchyServiceImpl) AssignManager(ctx context.Context, caller user.Identity, req user.AssignManagerRequest) (user.UserResponse, error) {
	if !caller.Valid() {
		return user.UserResponse{}, user.ErrMissingIdentity
	}
	if !s.authz.Can(caller.Role, user.PermUserAssignManager) {
		return user.UserResponse{}, user.ErrInsufficientPrivilege
	}
	if err := validator.Struct(req); err != nil {
		return user.UserResponse{}, err
	}

	var (
		target    user.User
		managerID *string
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.UserRepository.LockHierarchy(ctx); err != nil {
			return err
		}

		var err error
		target, err = s.UserRepository.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}

		if req.ManagerID != nil && strings.TrimSpace(*req.ManagerID) != "" {
			id := strings.TrimSpace(*req.ManagerID)
			if id == target.ID {
				return user.ErrSelfReporting
			}

			exists, err := s.UserRepository.Exists(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to check manager: %w", err)
			}
			if !exists {
				return user.ErrManagerNotFound
			}

			// The new manager must not already sit below the target.
			below, err := s.tree.SubtreeOf(ctx, target.ID)
			if err != nil {
				return err
			}
			if slices.Contains(below, id) {
				return user.ErrReportingCycle
			}
			managerID = &id
		}

		if err := s.UserRepository.UpdateReportsTo(ctx, target.ID, managerID); err != nil {
			return fmt.Errorf("failed to update reports_to: %w", err)
		}

		// A cache that cannot be invalidated aborts the move.
		return s.invalidate(ctx)
	})
	if err != nil {
		return user.UserResponse{}, err
	}

	// Readers between the first bump and commit may have cached old edges.
	if err := s.invalidate(ctx); err != nil {
		slog.Error("Failed to invalidate hierarchy cache after commit", "user_id", target.ID, "error", err)
		return user.UserResponse{}, fmt.Errorf("manager assigned but subtree cache is stale: %w", err)
	}

	slog.Info("Manager assigned", "user_id", target.ID, "manager_id", managerID, "by", caller.ID)

	target.ReportsTo = managerID
	return user.ToResponse(target), nil
}

func (s *HierarchyServiceImpl) invalidate(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	return s.invalidator.Invalidate(ctx)
}

// OrgChart implements hierarchy.Service.
func (s *HierarchyServiceImpl) OrgChart(ctx context.Context, caller user.Identity) ([]user.OrgChartNode, error) {
	filter, err := s.scopes.ScopeFor(ctx, caller, scope.ResourceUserList)
	if err != nil {
		return nil, err
	}

	users, err := s.DirectoryRepository.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	visible := make(map[string]bool, len(users))
	for _, u := range users {
		visible[u.ID] = true
	}

	var roots []user.User
	children := make(map[string][]user.User)
	for _, u := range users {
		if u.ReportsTo == nil || !visible[*u.ReportsTo] {
			roots = append(roots, u)
			continue
		}
		children[*u.ReportsTo] = append(children[*u.ReportsTo], u)
	}

	placed := 0
	var build func(u user.User) user.OrgChartNode
	build = func(u user.User) user.OrgChartNode {
		placed++
		node := user.OrgChartNode{UserResponse: user.ToResponse(u), Children: []user.OrgChartNode{}}
		for _, c := range children[u.ID] {
			node.Children = append(node.Children, build(c))
		}
		return node
	}

	chart := make([]user.OrgChartNode, 0, len(roots))
	for _, r := range roots {
		chart = append(chart, build(r))
	}

	// Users on a reports_to loop never hang off a root.
	if placed != len(users) {
		return nil, hierarchy.ErrCycleDetected
	}
	return chart, nil
}

func toResponses(users []user.User) []user.UserResponse {
	out := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, user.ToResponse(u))
	}
	return out
}
