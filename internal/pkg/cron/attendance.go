package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
)

const (
	DefaultSweepInterval = 30 * time.Minute
	SweepJobName         = "auto_close_abandoned_sessions"
)

type AttendanceJobs struct {
	sweeper  attendance.Sweeper
	interval time.Duration

	mu          sync.Mutex
	lastClosed  int
	totalClosed int
}

func NewAttendanceJobs(sweeper attendance.Sweeper, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &AttendanceJobs{sweeper: sweeper, interval: interval}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(SweepJobName, j.interval, j.AutoCloseAbandonedSessions)
	scheduler.OnResult(j.observe)
}

// AutoCloseAbandonedSessions closes sessions open for 12h or more.
func (j *AttendanceJobs) AutoCloseAbandonedSessions(ctx context.Context) error {
	closed, err := j.sweeper.SweepAbandoned(ctx)

	j.mu.Lock()
	j.lastClosed = closed
	j.totalClosed += closed
	j.mu.Unlock()
	return err
}

// Closed returns the sessions closed by the latest run and since start.
func (j *AttendanceJobs) Closed() (last, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastClosed, j.totalClosed
}

func (j *AttendanceJobs) observe(res Result) {
	if res.Job != SweepJobName {
		return
	}
	last, total := j.Closed()
	if res.Err != nil {
		slog.Warn("Sweeper run failed", "closed", last, "closed_total", total, "duration", res.Duration, "error", res.Err)
		return
	}
	slog.Info("Sweeper run", "closed", last, "closed_total", total, "duration", res.Duration)
}
