package conversation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/spec-kit/ticket-canvas/internal/domain"
	"github.com/spec-kit/ticket-canvas/internal/httpclient"
)

// Doer is the retrying transport the client runs on.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Client reads conversations and posts notes to them.
type Client struct {
	http    Doer
	adminID string
}

// NewClient constructs the client. adminID authors the notes it posts.
func NewClient(doer Doer, adminID string) *Client {
	return &Client{http: doer, adminID: adminID}
}

type apiAuthor struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type apiConversation struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Source    struct {
		Body   string    `json:"body"`
		Author apiAuthor `json:"author"`
	} `json:"source"`
	ConversationParts struct {
		ConversationParts []struct {
			PartType  string    `json:"part_type"`
			Body      string    `json:"body"`
			CreatedAt int64     `json:"created_at"`
			Author    apiAuthor `json:"author"`
		} `json:"conversation_parts"`
	} `json:"conversation_parts"`
}

// Get fetches the full history of a conversation in one request. Parts without a
// body (assignments, state changes) are dropped; messages are ordered oldest first.
func (c *Client) Get(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var raw apiConversation
	if _, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/conversations/" + url.PathEscape(conversationID),
		Query:  map[string]string{"display_as": "plaintext"},
		Result: &raw,
	}); err != nil {
		return nil, err
	}

	conv := &domain.Conversation{ID: raw.ID}
	if raw.Source.Body != "" {
		conv.Messages = append(conv.Messages, domain.Message{
			Author:    toAuthor(raw.Source.Author),
			Body:      raw.Source.Body,
			CreatedAt: unix(raw.CreatedAt),
		})
	}
	for _, part := range raw.ConversationParts.ConversationParts {
		if part.Body == "" {
			continue
		}
		conv.Messages = append(conv.Messages, domain.Message{
			Author:    toAuthor(part.Author),
			Body:      part.Body,
			CreatedAt: unix(part.CreatedAt),
		})
	}
	sort.SliceStable(conv.Messages, func(i, j int) bool {
		return conv.Messages[i].CreatedAt.Before(conv.Messages[j].CreatedAt)
	})
	return conv, nil
}

// ReplyNote posts an internal note visible to agents only.
func (c *Client) ReplyNote(ctx context.Context, conversationID, body string) error {
	if conversationID == "" {
		return fmt.Errorf("reply note: conversation id required")
	}
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/conversations/" + url.PathEscape(conversationID) + "/reply",
		Body: map[string]string{
			"message_type": "note",
			"type":         "admin",
			"admin_id":     c.adminID,
			"body":         body,
		},
	})
	return err
}

func toAuthor(a apiAuthor) domain.Author {
	return domain.Author{ID: a.ID, Type: a.Type, Name: a.Name, Email: a.Email}
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
