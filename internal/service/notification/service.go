package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/email"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount int // default: 2
	QueueSize   int // default: 1000
}

type service struct {
	mailer email.EmailService
	config Config

	queue    chan notification.EmailRequest
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(mailer email.EmailService, cfg Config) notification.Service {
	// Set defaults
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		mailer: mailer,
		config: cfg,
		queue:  make(chan notification.EmailRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)

	return s
}

// worker is the background worker that processes notification queue
func (s *service) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case req := <-s.queue:
			s.deliver(id, req)
		case <-s.stopCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case req := <-s.queue:
					s.deliver(id, req)
				default:
					return
				}
			}
		}
	}
}

func (s *service) deliver(worker int, req notification.EmailRequest) {
	for _, to := range req.To {
		if to == "" {
			continue
		}
		if err := s.mailer.Send(to, req.Subject, req.Template, req.Data); err != nil {
			slog.Error("Failed to deliver notification",
				"worker", worker,
				"to", to,
				"template", req.Template,
				"error", err)
		}
	}
}

// QueueEmail queues an email for async delivery. A full queue drops the
// request and reports ErrQueueFull.
func (s *service) QueueEmail(ctx context.Context, req notification.EmailRequest) error {
	if len(req.To) == 0 {
		return nil
	}

	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.Warn("Notification queue full, dropping email", "subject", req.Subject)
		return notification.ErrQueueFull
	}
}

// Stop gracefully stops the workers
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	slog.Info("Notification service stopped")
}
