package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/events"
)

// Notification is the rendered message for one ticket event.
type Notification struct {
	EventID  string
	ARNumber string
	Subject  string
	Body     string
	Email    bool
	Webhook  bool
}

// NotificationService turns ticket events into notifications. Email and webhook delivery are
// stubs that log what would be sent.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every ticket event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, et := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketUpdated,
		events.EventTicketEscalated,
	} {
		n.dispatcher.Subscribe(et, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	msg, ok := Render(event)
	if !ok {
		n.logger.Debug("no notification for event", zap.String("event_type", string(event.Type)))
		return nil
	}

	level := n.logger.Info
	switch event.Type {
	case events.EventTicketEscalated:
		level = n.logger.Warn
	case events.EventTicketUpdated:
		level = n.logger.Debug
	}
	level(msg.Subject, zap.String("ar_number", msg.ARNumber), zap.String("event_id", msg.EventID))

	if msg.Email {
		n.sendEmailStub(ctx, msg)
	}
	if msg.Webhook {
		n.sendWebhookStub(ctx, msg)
	}
	return nil
}

// Render builds the notification for an event. Updates are logged only; creations and
// escalations go to both channels; status changes go to the webhook.
func Render(event events.Event) (Notification, bool) {
	msg := Notification{EventID: event.ID, ARNumber: event.ARNumber}
	by := event.Actor.Username
	if by == "" {
		by = "system"
	}

	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		msg.Subject = fmt.Sprintf("%s filed: %s", event.ARNumber, p.Title)
		msg.Body = fmt.Sprintf("%s filed %s / %s with severity %s and priority %s.",
			by, p.Product, p.SubProduct, p.Severity, p.Priority)
		if p.Assignee != "" {
			msg.Body += " Assigned to " + p.Assignee + "."
		}
		msg.Email, msg.Webhook = true, true
	case events.TicketStatusChangedPayload:
		msg.Subject = fmt.Sprintf("%s is now %s", event.ARNumber, p.NewStatus)
		msg.Body = fmt.Sprintf("%s moved the ticket from %s to %s.", by, p.OldStatus, p.NewStatus)
		msg.Webhook = true
	case events.TicketUpdatedPayload:
		msg.Subject = fmt.Sprintf("%s updated", event.ARNumber)
		msg.Body = fmt.Sprintf("%s changed %s.", by, strings.Join(p.Fields, ", "))
	case events.TicketEscalatedPayload:
		msg.Subject = fmt.Sprintf("%s escalated", event.ARNumber)
		msg.Body = fmt.Sprintf("No change since %s; severity %s has elapsed.",
			p.ClockAnchor.UTC().Format("2006-01-02 15:04 MST"), p.Severity)
		if p.Assignee != "" {
			msg.Body += " Assignee: " + p.Assignee + "."
		}
		msg.Email, msg.Webhook = true, true
	default:
		return Notification{}, false
	}
	return msg, true
}

func (n *NotificationService) sendEmailStub(_ context.Context, msg Notification) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", msg.Subject),
		zap.String("ar_number", msg.ARNumber))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, msg Notification) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject", msg.Subject),
		zap.String("ar_number", msg.ARNumber))
}
