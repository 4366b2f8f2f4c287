package domain

import "time"

// Author is who wrote a conversation message.
type Author struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DisplayName prefers the name, then the email, then the author type.
func (a Author) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Email != "":
		return a.Email
	case a.Type != "":
		return a.Type
	default:
		return "Unknown"
	}
}

// Message is one entry of a conversation's history.
type Message struct {
	Author    Author
	Body      string
	CreatedAt time.Time
}

// Conversation is the full history of a messenger conversation, oldest first.
type Conversation struct {
	ID       string
	Messages []Message
}
