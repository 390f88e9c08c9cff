package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

// BalanceService owns every write to a stored balance. The booking methods
// expect to run inside a transaction opened by the caller; the repair methods
// open their own.
type BalanceService struct {
	leave.BalanceRepository
	leave.HistoryRepository
	tx database.TxManager
}

func NewBalanceService(balanceRepo leave.BalanceRepository, historyRepo leave.HistoryRepository, tx database.TxManager) *BalanceService {
	return &BalanceService{
		BalanceRepository: balanceRepo,
		HistoryRepository: historyRepo,
		tx:                tx,
	}
}

// Reserve books days of t for userID.
func (b *BalanceService) Reserve(ctx context.Context, userID string, t leave.Type, days int) error {
	balance, err := b.BalanceRepository.GetForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to lock leave balance: %w", err)
	}

	next, err := leave.Apply(balance, t, days)
	if err != nil {
		return err
	}
	if err := b.BalanceRepository.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to reserve leave: %w", err)
	}

	slog.Debug("Reserved leave", "user_id", userID, "leave_type", t, "days", days, "available", next.AvailableLeaves)
	return nil
}

// Release refunds days of t to userID.
func (b *BalanceService) Release(ctx context.Context, userID string, t leave.Type, days int) error {
	balance, err := b.BalanceRepository.GetForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to lock leave balance: %w", err)
	}

	next := leave.Reverse(balance, t, days)
	if err := b.BalanceRepository.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to release leave: %w", err)
	}

	slog.Debug("Released leave", "user_id", userID, "leave_type", t, "days", days, "available", next.AvailableLeaves)
	return nil
}

// Transition reconciles the balance for req moving to status.
func (b *BalanceService) Transition(ctx context.Context, req leave.LeaveRequest, status leave.Status) error {
	balance, err := b.BalanceRepository.GetForUpdate(ctx, req.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to lock leave balance: %w", err)
	}

	next, err := leave.Reconcile(balance, req.LeaveType, req.Days, req.Status, status)
	if err != nil {
		return err
	}
	if err := b.BalanceRepository.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to reconcile leave balance: %w", err)
	}
	return nil
}

// Rebook moves the days held by req onto a new type and span.
func (b *BalanceService) Rebook(ctx context.Context, req leave.LeaveRequest, t leave.Type, days int) error {
	balance, err := b.BalanceRepository.GetForUpdate(ctx, req.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to lock leave balance: %w", err)
	}

	next, err := leave.Rebook(balance, req.LeaveType, req.Days, t, days)
	if err != nil {
		return err
	}
	if err := b.BalanceRepository.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to rebook leave: %w", err)
	}

	slog.Debug("Rebooked leave", "user_id", req.EmployeeID, "leave_id", req.ID, "from_days", req.Days, "to_days", days)
	return nil
}

// Reallocate replaces the granted days and re-derives the rest from history.
func (b *BalanceService) Reallocate(ctx context.Context, userID string, pto, sick int) (leave.Balance, error) {
	balance, err := b.BalanceRepository.GetForUpdate(ctx, userID)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to lock leave balance: %w", err)
	}
	history, err := b.HistoryRepository.ListByUser(ctx, userID)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to load leave history: %w", err)
	}

	balance.Allocated = map[leave.Type]int{leave.TypePTO: pto, leave.TypeSick: sick}
	next, _ := leave.Rebuild(balance, history)
	for _, t := range leave.Types {
		if next.Remaining[t] < 0 {
			return leave.Balance{}, fmt.Errorf("%w: %s allocation %d, %d already booked",
				leave.ErrAllocationBelowUsed, t, next.Allocated[t], next.Allocated[t]-next.Remaining[t])
		}
	}

	if err := b.BalanceRepository.Save(ctx, next); err != nil {
		return leave.Balance{}, fmt.Errorf("failed to save leave allocation: %w", err)
	}
	return next, nil
}

// RebuildBalance implements leave.LedgerRepairer.
func (b *BalanceService) RebuildBalance(ctx context.Context, userID string) (leave.Drift, error) {
	var drift leave.Drift
	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		balance, err := b.BalanceRepository.GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock leave balance: %w", err)
		}
		history, err := b.HistoryRepository.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load leave history: %w", err)
		}

		var next leave.Balance
		next, drift = leave.Rebuild(balance, history)
		if !drift.Changed {
			return nil
		}
		return b.BalanceRepository.Save(ctx, next)
	})
	if err != nil {
		return leave.Drift{}, err
	}

	if drift.Changed {
		slog.Warn("Leave balance repaired",
			"user_id", userID,
			"booked_before", drift.BookedBefore,
			"booked_after", drift.BookedAfter,
			"available_before", drift.AvailableBefore,
			"available_after", drift.AvailableAfter,
		)
	}
	return drift, nil
}

// RebuildAll implements leave.LedgerRepairer. It returns only the balances
// that changed; a failure on one user is logged and skipped.
func (b *BalanceService) RebuildAll(ctx context.Context) ([]leave.Drift, error) {
	userIDs, err := b.BalanceRepository.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var (
		repaired []leave.Drift
		failed   int
	)
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		drift, err := b.RebuildBalance(ctx, id)
		if err != nil {
			failed++
			slog.Error("Failed to rebuild leave balance", "user_id", id, "error", err)
			continue
		}
		if drift.Changed {
			repaired = append(repaired, drift)
		}
	}

	slog.Info("Leave balances rebuilt", "checked", len(userIDs), "repaired", len(repaired), "failed", failed)
	return repaired, nil
}
