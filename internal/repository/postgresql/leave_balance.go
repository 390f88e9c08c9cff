package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// The balance lives on the users row so locking it serializes every ledger
// mutation for that user.
type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const balanceQuery = `
	SELECT id, leave_pto, leave_sick, remaining_pto, remaining_sick, booked_leaves, available_leaves
	FROM users
	WHERE id = $1
`

func (r *leaveBalanceRepositoryImpl) get(ctx context.Context, query, userID string) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	var (
		b                 leave.Balance
		pto, sick         int
		remPTO, remSick   int
		booked, available int
	)
	err := q.QueryRow(ctx, query, userID).Scan(&b.UserID, &pto, &sick, &remPTO, &remSick, &booked, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}

	b.Allocated = map[leave.Type]int{leave.TypePTO: pto, leave.TypeSick: sick}
	b.Remaining = map[leave.Type]int{leave.TypePTO: remPTO, leave.TypeSick: remSick}
	b.BookedLeaves = booked
	b.AvailableLeaves = available
	return b, nil
}

// GetForUpdate implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetForUpdate(ctx context.Context, userID string) (leave.Balance, error) {
	if _, ok := database.TxFromContext(ctx); !ok {
		return leave.Balance{}, errors.New("leave balance lock requires a transaction")
	}
	return r.get(ctx, balanceQuery+" FOR UPDATE", userID)
}

// Get implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, userID string) (leave.Balance, error) {
	return r.get(ctx, balanceQuery, userID)
}

// Save implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) Save(ctx context.Context, b leave.Balance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET leave_pto = $1, leave_sick = $2, remaining_pto = $3, remaining_sick = $4,
			booked_leaves = $5, available_leaves = $6, updated_at = NOW()
		WHERE id = $7
	`

	tag, err := q.Exec(ctx, query,
		b.Allocated[leave.TypePTO], b.Allocated[leave.TypeSick],
		b.Remaining[leave.TypePTO], b.Remaining[leave.TypeSick],
		b.BookedLeaves, b.AvailableLeaves, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return leave.ErrBalanceNotFound
	}
	return nil
}

// ListUserIDs implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListUserIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
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
