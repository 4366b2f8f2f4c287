package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/events"
)

// NoteSender posts an internal note to a conversation.
type NoteSender interface {
	ReplyNote(ctx context.Context, conversationID, body string) error
}

// Notifier reports background outcomes back into the source conversation.
type Notifier struct {
	notes  NoteSender
	logger *zap.Logger
}

// NewNotifier creates the notifier.
func NewNotifier(notes NoteSender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{notes: notes, logger: logger}
}

// RegisterHandlers subscribes to ticket outcome events.
func (n *Notifier) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketCreationFailed, n.handleTicketCreationFailed)
}

// NotifySuccess posts the ticket reference. An empty conversation id is a no-op.
func (n *Notifier) NotifySuccess(ctx context.Context, conversationID string, ticketID int64, ticketURL string) error {
	body := fmt.Sprintf("<p>Ticket #%d created: <a href=\"%s\">%s</a></p>", ticketID, html.EscapeString(ticketURL), html.EscapeString(ticketURL))
	return n.post(ctx, conversationID, body)
}

// NotifyFailure posts the error text. An empty conversation id is a no-op.
func (n *Notifier) NotifyFailure(ctx context.Context, conversationID, message string) error {
	body := fmt.Sprintf("<p>Ticket creation failed: %s</p>", html.EscapeString(message))
	return n.post(ctx, conversationID, body)
}

func (n *Notifier) post(ctx context.Context, conversationID, body string) error {
	if conversationID == "" {
		n.logger.Debug("no conversation to notify; skipping note")
		return nil
	}
	if err := n.notes.ReplyNote(ctx, conversationID, body); err != nil {
		return fmt.Errorf("post note to conversation %s: %w", conversationID, err)
	}
	return nil
}

func (n *Notifier) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("ticket_created: unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketCreated",
		zap.String("submission_id", event.SubmissionID),
		zap.Int64("ticket_id", payload.TicketID))
	return n.NotifySuccess(ctx, event.ConversationID, payload.TicketID, payload.TicketURL)
}

func (n *Notifier) handleTicketCreationFailed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreationFailedPayload)
	if !ok {
		return fmt.Errorf("ticket_creation_failed: unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketCreationFailed",
		zap.String("submission_id", event.SubmissionID),
		zap.String("code", payload.Code))
	return n.NotifyFailure(ctx, event.ConversationID, payload.Message)
}
