package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/service"
)

// ErrMailQueueFull is returned by Send when the backlog is at capacity.
var ErrMailQueueFull = errors.New("mail queue full")

// ErrMailQueueStopped is returned by Send after Stop.
var ErrMailQueueStopped = errors.New("mail queue stopped")

type outgoingMail struct {
	to, subject, body string
}

// MailQueue hands emails to a background sender so SMTP round trips stay off the request path.
type MailQueue struct {
	next   service.Mailer
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	queue   chan outgoingMail
	done    chan struct{}
}

// NewMailQueue starts a sender draining up to size queued emails into next.
func NewMailQueue(next service.Mailer, size int, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &MailQueue{
		next:   next,
		logger: logger,
		queue:  make(chan outgoingMail, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Send enqueues one email without waiting for delivery.
func (q *MailQueue) Send(to, subject, body string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrMailQueueStopped
	}
	select {
	case q.queue <- outgoingMail{to: to, subject: subject, body: body}:
		return nil
	default:
		return ErrMailQueueFull
	}
}

// Stop rejects new mail and waits for the backlog to drain.
func (q *MailQueue) Stop() {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.queue)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *MailQueue) run() {
	defer close(q.done)
	for mail := range q.queue {
		if err := q.next.Send(mail.to, mail.subject, mail.body); err != nil {
			q.logger.Warn("deliver email", zap.String("to", mail.to), zap.Error(err))
		}
	}
}
