package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// TreeResolver walks the reports_to edge breadth-first, one query per layer.
type TreeResolver struct {
	users user.UserRepository
}

func NewTreeResolver(users user.UserRepository) *TreeResolver {
	return &TreeResolver{users: users}
}

// SubtreeOf implements hierarchy.Resolver. A node reached twice means the
// reports_to graph has a cycle through rootID, which fails the call.
func (r *TreeResolver) SubtreeOf(ctx context.Context, rootID string) ([]string, error) {
	rootID = strings.TrimSpace(rootID)
	if rootID == "" {
		return []string{}, nil
	}

	exists, err := r.users.Exists(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user %s: %w", rootID, err)
	}
	if !exists {
		return []string{}, nil
	}

	visited := map[string]struct{}{rootID: {}}
	subtree := []string{rootID}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reports, err := r.users.ListReportIDs(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to list direct reports: %w", err)
		}

		next := make([]string, 0, len(reports))
		for _, id := range reports {
			if _, seen := visited[id]; seen {
				return nil, fmt.Errorf("%w: user %s reached twice under %s", hierarchy.ErrCycleDetected, id, rootID)
			}
			visited[id] = struct{}{}
			subtree = append(subtree, id)
			next = append(next, id)
		}
		frontier = next
	}

	return subtree, nil
}

// DirectReports lists the users whose reports_to is userID.
func (r *TreeResolver) DirectReports(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.users.ListReportIDs(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports: %w", err)
	}
	return ids, nil
}
