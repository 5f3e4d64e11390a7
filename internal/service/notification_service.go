package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/jobboard/job-board/internal/config"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/repository"
)

// Mailer delivers one email.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	cfg config.NotificationConfig
}

// NewSMTPMailer returns a gomail-backed Mailer, or nil when no SMTP host is configured.
func NewSMTPMailer(cfg config.NotificationConfig) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.EmailFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPassword)
	return d.DialAndSend(msg)
}

// NotificationService emails job owners about new applications and applicants about status
// changes. Without a mailer it only logs what would have been sent.
type NotificationService struct {
	users  repository.UserRepository
	mailer Mailer
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(users repository.UserRepository, mailer Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{users: users, mailer: mailer, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventApplicationSubmitted, n.handleApplicationSubmitted)
	dispatcher.Subscribe(events.EventApplicationStatusChanged, n.handleStatusChanged)
}

func (n *NotificationService) handleApplicationSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	subject := fmt.Sprintf("New application for %s", payload.JobTitle)
	body := fmt.Sprintf("%s applied for %s with %d document(s).",
		payload.ApplicantName, payload.JobTitle, payload.DocumentsCount)
	return n.notify(ctx, payload.JobOwnerID, event, subject, body)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	subject := "Your application status has changed"
	body := fmt.Sprintf("Your application is now %s.", payload.NewStatus)
	return n.notify(ctx, payload.ApplicantID, event, subject, body)
}

func (n *NotificationService) notify(ctx context.Context, userID string, event events.Event, subject, body string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			n.logger.Debug("notification recipient missing", zap.String("user_id", userID))
			return nil
		}
		return err
	}

	if n.mailer == nil {
		n.logger.Info("notification",
			zap.String("event_type", string(event.Type)),
			zap.String("job_id", event.JobID),
			zap.String("to", user.Email),
			zap.String("subject", subject))
		return nil
	}
	if err := n.mailer.Send(user.Email, subject, body); err != nil {
		n.logger.Warn("send notification", zap.String("to", user.Email), zap.Error(err))
		return err
	}
	return nil
}
