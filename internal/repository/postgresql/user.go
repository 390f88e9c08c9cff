package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/scope"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, role, reports_to, is_technician, created_at, updated_at`

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

// NewDirectoryRepository lists users through a scope filter.
func NewDirectoryRepository(db *database.DB) hierarchy.DirectoryRepository {
	return &userRepositoryImpl{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.ReportsTo, &u.IsTechnician, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.Role = user.ParseRole(role)
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]user.User, error) {
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Exists implements user.UserRepository.
func (r *userRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListReportIDs implements user.UserRepository.
func (r *userRepositoryImpl) ListReportIDs(ctx context.Context, managerIDs []string) ([]string, error) {
	if len(managerIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM users WHERE reports_to = ANY($1::uuid[]) ORDER BY id`, managerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByIDs implements user.UserRepository.
func (r *userRepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[]) ORDER BY id`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectUsers(rows)
}

// ListByRoles implements user.UserRepository. Roles are stored in their
// canonical form.
func (r *userRepositoryImpl) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	labels := make([]string, 0, len(roles))
	for _, role := range roles {
		labels = append(labels, string(role))
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1::text[]) ORDER BY name`
	rows, err := q.Query(ctx, query, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return collectUsers(rows)
}

// LockHierarchy implements user.UserRepository.
func (r *userRepositoryImpl) LockHierarchy(ctx context.Context) error {
	return advisoryXactLock(ctx, "users:reports_to")
}

// UpdateReportsTo implements user.UserRepository.
func (r *userRepositoryImpl) UpdateReportsTo(ctx context.Context, userID string, managerID *string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE users SET reports_to = $1, updated_at = NOW() WHERE id = $2`, managerID, userID)
	if err != nil {
		return fmt.Errorf("failed to update reports_to: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ListUsers implements hierarchy.DirectoryRepository.
func (r *userRepositoryImpl) ListUsers(ctx context.Context, filter scope.Filter) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	whereClause, args, _, err := appendScope("WHERE TRUE", nil, 1, filter, map[scope.Field]string{scope.FieldUser: "id"})
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users ` + whereClause + ` ORDER BY name`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectUsers(rows)
}
