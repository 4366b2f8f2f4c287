package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spec-kit/ticket-canvas/internal/domain"
)

// FlexibleID accepts a JSON string or number.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// CanvasPerson is a contact, customer or admin reference.
type CanvasPerson struct {
	ID    FlexibleID `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
}

// CanvasConversation identifies the conversation the canvas is shown in.
type CanvasConversation struct {
	ID FlexibleID `json:"id"`
}

// CanvasContextPayload is the inbox location the request was made from.
type CanvasContextPayload struct {
	ConversationID FlexibleID `json:"conversation_id"`
	Location       string     `json:"location"`
}

// CanvasRequest is the body of initialize and submit calls.
type CanvasRequest struct {
	ComponentID  string               `json:"component_id"`
	InputValues  map[string]any       `json:"input_values"`
	Conversation *CanvasConversation  `json:"conversation"`
	Context      CanvasContextPayload `json:"context"`
	Contact      *CanvasPerson        `json:"contact"`
	Customer     *CanvasPerson        `json:"customer"`
	Admin        *CanvasPerson        `json:"admin"`
}

// ConversationID prefers the conversation object over the context field.
func (r CanvasRequest) ConversationID() string {
	if r.Conversation != nil && r.Conversation.ID != "" {
		return string(r.Conversation.ID)
	}
	return string(r.Context.ConversationID)
}

// ContactEmail prefers the contact over the customer.
func (r CanvasRequest) ContactEmail() string {
	for _, p := range []*CanvasPerson{r.Contact, r.Customer} {
		if p != nil && strings.TrimSpace(p.Email) != "" {
			return strings.TrimSpace(p.Email)
		}
	}
	return ""
}

// AdminID is the agent viewing the canvas.
func (r CanvasRequest) AdminID() string {
	if r.Admin == nil {
		return ""
	}
	return string(r.Admin.ID)
}

// Inputs flattens input_values to strings. Dropdown values may arrive as numbers.
func (r CanvasRequest) Inputs() map[string]string {
	out := make(map[string]string, len(r.InputValues))
	for k, v := range r.InputValues {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			if b, err := json.Marshal(val); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

// OperationResponse is one tracker record on the admin surface.
type OperationResponse struct {
	Identity     string                `json:"identity"`
	State        domain.OperationState `json:"state"`
	SubmissionID string                `json:"submission_id"`
	StartedAt    string                `json:"started_at"`
	FinishedAt   *string               `json:"finished_at,omitempty"`
	TicketID     *int64                `json:"ticket_id,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
}

// NewOperationResponse maps an OperationRecord.
func NewOperationResponse(rec domain.OperationRecord) OperationResponse {
	resp := OperationResponse{
		Identity:     rec.Identity,
		State:        rec.State,
		SubmissionID: rec.SubmissionID,
		StartedAt:    rec.StartedAt.Format(timeLayout),
		TicketID:     rec.TicketID,
		ErrorMessage: rec.ErrorMessage,
	}
	if rec.FinishedAt != nil {
		finished := rec.FinishedAt.Format(timeLayout)
		resp.FinishedAt = &finished
	}
	return resp
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
