package hierarchy

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// Resolver computes reporting subtrees over the reports_to edge.
type Resolver interface {
	// SubtreeOf returns userID plus everyone who reports to it directly or
	// indirectly. Unknown ids yield an empty slice.
	SubtreeOf(ctx context.Context, userID string) ([]string, error)
}

// Invalidator drops memoized subtrees after the org chart changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service exposes org-chart reads and writes to the HTTP layer.
type Service interface {
	// Team lists the subtree of userID, provided userID is visible to caller.
	Team(ctx context.Context, caller user.Identity, userID string) ([]user.UserResponse, error)

	// ListVisibleUsers lists every user in caller's user_list scope.
	ListVisibleUsers(ctx context.Context, caller user.Identity) ([]user.UserResponse, error)

	// OrgChart nests caller's visible users under their managers. Users whose
	// manager is not visible become roots.
	OrgChart(ctx context.Context, caller user.Identity) ([]user.OrgChartNode, error)

	// AssignManager moves userID under a new manager, rejecting cycles.
	AssignManager(ctx context.Context, caller user.Identity, req user.AssignManagerRequest) (user.UserResponse, error)
}
