package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	Exists(ctx context.Context, id string) (bool, error)

	// ListReportIDs returns the ids of every user whose reports_to is one of managerIDs.
	ListReportIDs(ctx context.Context, managerIDs []string) ([]string, error)

	// ListByIDs returns users in id order; unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]User, error)

	// ListByRoles returns every user holding one of roles.
	ListByRoles(ctx context.Context, roles []Role) ([]User, error)

	// LockHierarchy serializes reports_to writers for the rest of the
	// surrounding transaction.
	LockHierarchy(ctx context.Context) error

	UpdateReportsTo(ctx context.Context, userID string, managerID *string) error
}
