package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/event"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
)

const defaultSweepBatch = 500

type SweeperImpl struct {
	attendance.AttendanceRepository
	outbox    event.OutboxRepository
	tx        database.TxManager
	clock     *clock.BusinessClock
	policy    attendance.ClosePolicy
	batchSize int
}

func NewSweeper(
	attendanceRepo attendance.AttendanceRepository,
	outbox event.OutboxRepository,
	tx database.TxManager,
	clk *clock.BusinessClock,
	policy attendance.ClosePolicy,
) attendance.Sweeper {
	return &SweeperImpl{
		AttendanceRepository: attendanceRepo,
		outbox:               outbox,
		tx:                   tx,
		clock:                clk,
		policy:               policy,
		batchSize:            defaultSweepBatch,
	}
}

// SweepAbandoned implements attendance.Sweeper. Records closed concurrently
// by a check-out are skipped, so running it twice closes nothing new. Pages
// are drained until a short page or a page that closes nothing, which
// happens when every remaining candidate keeps failing.
func (s *SweeperImpl) SweepAbandoned(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-attendance.SessionCeiling)

	closedCount, candidates := 0, 0
	for {
		stale, err := s.AttendanceRepository.ListStaleOpen(ctx, cutoff, s.batchSize)
		if err != nil {
			return closedCount, fmt.Errorf("failed to list stale sessions: %w", err)
		}
		candidates += len(stale)

		closed, err := s.closeBatch(ctx, stale, now)
		closedCount += closed
		if err != nil {
			return closedCount, err
		}
		if len(stale) < s.batchSize || closed == 0 {
			break
		}
	}

	if candidates > 0 {
		slog.Info("Auto-closed abandoned sessions", "count", closedCount, "candidates", candidates)
	}
	return closedCount, nil
}

func (s *SweeperImpl) closeBatch(ctx context.Context, stale []attendance.Record, now time.Time) (int, error) {
	closedCount := 0
	for _, rec := range stale {
		if ctx.Err() != nil {
			return closedCount, ctx.Err()
		}

		forced := s.policy.ForceClose(rec, attendance.TriggerSweeper, now)
		won := false
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			ok, err := s.AttendanceRepository.CloseSession(ctx, forced)
			if err != nil || !ok {
				return err
			}
			won = true
			return recordAutoClose(ctx, s.outbox, forced, attendance.TriggerSweeper)
		})
		if err != nil {
			slog.Error("Failed to auto-close attendance",
				"record_id", rec.ID,
				"user_id", rec.UserID,
				"error", err)
			continue
		}
		if !won {
			slog.Debug("Session already closed, skipping", "record_id", rec.ID)
			continue
		}
		closedCount++
	}
	return closedCount, nil
}
