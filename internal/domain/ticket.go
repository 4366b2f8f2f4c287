package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Ticket status codes used by the ticketing API.
const (
	TicketStatusOpen     int64 = 2
	TicketStatusPending  int64 = 3
	TicketStatusResolved int64 = 4
	TicketStatusClosed   int64 = 5
)

// TicketSummary is a row from the recent tickets lookup.
type TicketSummary struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Status    int64     `json:"status"`
	Priority  int64     `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusLabel names the built-in status codes.
func StatusLabel(status int64) string {
	switch status {
	case TicketStatusOpen:
		return "Open"
	case TicketStatusPending:
		return "Pending"
	case TicketStatusResolved:
		return "Resolved"
	case TicketStatusClosed:
		return "Closed"
	default:
		return ""
	}
}

// Mailbox is a support mailbox tickets can be filed under.
type Mailbox struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SupportEmail string `json:"support_email"`
	ProductID    *int64 `json:"product_id"`
	Active       bool   `json:"active"`
}

// TicketField describes one configurable ticket field.
type TicketField struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Choices Choices `json:"choices"`
}

// Choice is one selectable value of a ticket field.
type Choice struct {
	Value int64
	Label string
}

// Choices decodes the ticketing API's field choices, which come as an array of
// {value,label} objects, a label→value object (priority) or a value→[labels] object (status).
// Any other shape decodes to no choices.
type Choices []Choice

func (c *Choices) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || len(data) == 0 {
		*c = nil
		return nil
	}

	var list []struct {
		ID    *int64 `json:"id"`
		Value *int64 `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(Choices, 0, len(list))
		for _, item := range list {
			v := item.Value
			if v == nil {
				v = item.ID
			}
			if v == nil {
				continue
			}
			out = append(out, Choice{Value: *v, Label: item.Label})
		}
		*c = out
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		// custom dropdowns carry plain string lists; they have no numeric value to offer
		*c = nil
		return nil
	}
	out := make(Choices, 0, len(obj))
	for key, raw := range obj {
		var num int64
		if err := json.Unmarshal(raw, &num); err == nil {
			out = append(out, Choice{Value: num, Label: key})
			continue
		}
		value, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		var labels []string
		if err := json.Unmarshal(raw, &labels); err == nil && len(labels) > 0 {
			out = append(out, Choice{Value: value, Label: labels[0]})
			continue
		}
		var label string
		if err := json.Unmarshal(raw, &label); err == nil {
			out = append(out, Choice{Value: value, Label: label})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	*c = out
	return nil
}

// MarshalJSON emits the array form so cached values decode back unchanged.
func (c Choices) MarshalJSON() ([]byte, error) {
	type item struct {
		Value int64  `json:"value"`
		Label string `json:"label"`
	}
	out := make([]item, 0, len(c))
	for _, ch := range c {
		out = append(out, item{Value: ch.Value, Label: ch.Label})
	}
	return json.Marshal(out)
}

// TicketPayload is the body of POST /tickets.
type TicketPayload struct {
	Email         string `json:"email"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
	Source        int64  `json:"source"`
	Status        int64  `json:"status,omitempty"`
	Priority      int64  `json:"priority,omitempty"`
	EmailConfigID int64  `json:"email_config_id,omitempty"`
	ProductID     int64  `json:"product_id,omitempty"`
}
