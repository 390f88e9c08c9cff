package hierarchy

import (
	"context"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
)

// DirectoryRepository lists users through a visibility filter.
type DirectoryRepository interface {
	ListUsers(ctx context.Context, filter scope.Filter) ([]user.User, error)
}
