package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job runs Fn every Interval. Each run gets a context that expires after one
// interval, so a hung run never overlaps the next tick.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// Result describes one finished run.
type Result struct {
	Job      string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Stats accumulates results per job.
type Stats struct {
	Runs                int
	Failures            int
	ConsecutiveFailures int
	LastRun             time.Time
	LastError           string
}

type Scheduler struct {
	mu       sync.Mutex
	jobs     []Job
	stats    map[string]Stats
	onResult []func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		stats:  make(map[string]Stats),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers fn. Non-positive intervals are ignored.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		slog.Warn("Cron job skipped, interval must be positive", "name", name, "interval", interval)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, Fn: fn})
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// OnResult adds a hook called after every run, in registration order.
func (s *Scheduler) OnResult(fn func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = append(s.onResult, fn)
}

// JobNames lists registered jobs in registration order.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Stats returns a snapshot for one job.
func (s *Scheduler) Stats(name string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[name]
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(job)
	}
	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels every job and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) loop(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.run(s.ctx, job)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.run(s.ctx, job)
		}
	}
}

func (s *Scheduler) run(parent context.Context, job Job) Result {
	ctx, cancel := context.WithTimeout(parent, job.Interval)
	defer cancel()

	res := Result{Job: job.Name, Started: time.Now()}
	res.Err = job.Fn(ctx)
	res.Duration = time.Since(res.Started)

	s.mu.Lock()
	st := s.stats[job.Name]
	st.Runs++
	st.LastRun = res.Started
	if res.Err != nil {
		st.Failures++
		st.ConsecutiveFailures++
		st.LastError = res.Err.Error()
	} else {
		st.ConsecutiveFailures = 0
		st.LastError = ""
	}
	s.stats[job.Name] = st
	hooks := append([]func(Result){}, s.onResult...)
	s.mu.Unlock()

	if res.Err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", res.Err, "duration", res.Duration)
	} else {
		slog.Debug("Cron job completed", "name", job.Name, "duration", res.Duration)
	}
	for _, hook := range hooks {
		hook(res)
	}
	return res
}

// RunOnce runs every job once on the caller's goroutine and joins failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job{}, s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if res := s.run(ctx, job); res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}
