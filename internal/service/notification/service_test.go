package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (m *recordingMailer) Send(to, subject, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func TestQueueEmailDeliversBeforeStop(t *testing.T) {
	mailer := &recordingMailer{fail: map[string]bool{"bad@example.com": true}}
	svc := NewNotificationService(mailer, Config{WorkerCount: 1, QueueSize: 10})

	err := svc.QueueEmail(context.Background(), notification.EmailRequest{
		To:       []string{"hr@example.com", "bad@example.com", "", "admin@example.com"},
		Subject:  "New Leave Request",
		Template: notification.TemplateLeaveCreated,
	})
	require.NoError(t, err)

	svc.Stop()

	assert.ElementsMatch(t, []string{"hr@example.com|New Leave Request", "admin@example.com|New Leave Request"}, mailer.sent)
}

func TestQueueEmailIgnoresEmptyRecipients(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer, Config{WorkerCount: 1, QueueSize: 1})
	defer svc.Stop()

	assert.NoError(t, svc.QueueEmail(context.Background(), notification.EmailRequest{Subject: "x"}))
}

func TestQueueEmailReportsFullQueue(t *testing.T) {
	s := &service{
		mailer: &recordingMailer{},
		queue:  make(chan notification.EmailRequest, 1),
		stopCh: make(chan struct{}),
	}
	req := notification.EmailRequest{To: []string{"a@example.com"}}

	require.NoError(t, s.QueueEmail(context.Background(), req))
	assert.ErrorIs(t, s.QueueEmail(context.Background(), req), notification.ErrQueueFull)
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, notification.ColorApproved, notification.StatusColor("Approved"))
	assert.Equal(t, notification.ColorRejected, notification.StatusColor("Rejected"))
	assert.Equal(t, notification.ColorPending, notification.StatusColor("Pending"))
}
