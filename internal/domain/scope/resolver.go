package scope

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// Resolver turns a caller and a resource type into a visibility filter.
type Resolver interface {
	ScopeFor(ctx context.Context, caller user.Identity, resource Resource) (Filter, error)
}
