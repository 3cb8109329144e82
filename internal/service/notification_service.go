package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskpro/helpdesk-service/internal/domain"
	"github.com/helpdeskpro/helpdesk-service/internal/events"
	"github.com/helpdeskpro/helpdesk-service/internal/mail"
)

const sendTimeout = 15 * time.Second

// NotificationService turns domain events into transactional emails. All
// dispatch is fire-and-forget: transport failures are logged and never
// reach the request that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     mail.Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender mail.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	subject := "Ticket created - HelpDeskPro"
	body := fmt.Sprintf("Hello,\n\nYour ticket %q has been created successfully.\n\nThank you for contacting us.\n\nHelpDeskPro Team", payload.Title)
	n.sendAsync(event, payload.CreatorEmail, subject, body)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	// only the closed transition notifies; every other status change is
	// silent
	if payload.NewStatus != domain.TicketStatusClosed {
		return nil
	}
	subject := "Ticket closed - HelpDeskPro"
	body := fmt.Sprintf("Hello,\n\nYour ticket %q has been closed.\n\nThank you for using HelpDeskPro.\n\nHelpDeskPro Team", payload.Title)
	n.sendAsync(event, payload.CreatorEmail, subject, body)
	return nil
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}
	// agents notify the ticket's creator; client comments never notify
	if payload.AuthorRole != domain.RoleAgent {
		return nil
	}
	subject := "New response on your ticket - HelpDeskPro"
	body := fmt.Sprintf("Hello,\n\nThere is a new response on your ticket %q.\n\nHelpDeskPro Team", payload.Title)
	n.sendAsync(event, payload.CreatorEmail, subject, body)
	return nil
}

// sendAsync delivers the message without blocking the publishing request.
// The send gets its own context so request cancellation cannot abort it.
func (n *NotificationService) sendAsync(event events.Event, to, subject, body string) {
	if n.sender == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.sender.Send(ctx, to, subject, body); err != nil {
			n.logger.Warn("notification send failed",
				zap.String("ticket_id", event.TicketID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			return
		}
		n.logger.Info("notification sent",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)))
	}()
}
