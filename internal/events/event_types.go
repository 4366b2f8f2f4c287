package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketCreationFailed EventType = "ticket_creation_failed"
)

// Event is emitted by the canvas service when a background task finishes.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	SubmissionID   string      `json:"submission_id"`
	Identity       string      `json:"identity"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID  int64  `json:"ticket_id"`
	TicketURL string `json:"ticket_url"`
}

// TicketCreationFailedPayload payload.
type TicketCreationFailedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
