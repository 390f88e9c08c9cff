package dashboard

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

type DashboardService interface {
	// GetStats runs every count through the caller's scope for that resource.
	GetStats(ctx context.Context, caller user.Identity) (StatsResponse, error)
}
