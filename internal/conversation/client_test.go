package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-canvas/internal/httpclient"
)

func newTestClient(srv *httptest.Server) *Client {
	policy := httpclient.DefaultPolicy()
	policy.MaxRetries = 0
	return NewClient(httpclient.New(httpclient.Options{Name: "conversation", BaseURL: srv.URL, BearerToken: "tok", Policy: policy}), "99")
}

func TestGetOrdersMessagesAndSkipsEmptyParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/123", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": "123",
			"created_at": 1700000000,
			"source": {"body": "<p>My printer</p>", "author": {"type": "user", "name": "Ada"}},
			"conversation_parts": {"conversation_parts": [
				{"part_type": "comment", "body": "<p>Second</p>", "created_at": 1700000200, "author": {"type": "admin", "name": "Bo"}},
				{"part_type": "assignment", "body": "", "created_at": 1700000100},
				{"part_type": "comment", "body": "<p>First</p>", "created_at": 1700000100, "author": {"type": "admin", "name": "Bo"}}
			]}
		}`))
	}))
	defer srv.Close()

	conv, err := newTestClient(srv).Get(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "<p>My printer</p>", conv.Messages[0].Body)
	assert.Equal(t, "Ada", conv.Messages[0].Author.Name)
	assert.Equal(t, "<p>First</p>", conv.Messages[1].Body)
	assert.Equal(t, "<p>Second</p>", conv.Messages[2].Body)
}

func TestReplyNoteBody(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/conversations/123/reply", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).ReplyNote(context.Background(), "123", "Ticket #42 created"))
	assert.Equal(t, "note", body["message_type"])
	assert.Equal(t, "admin", body["type"])
	assert.Equal(t, "99", body["admin_id"])
	assert.Equal(t, "Ticket #42 created", body["body"])
}

func TestReplyNoteRequiresConversation(t *testing.T) {
	c := NewClient(nil, "1")
	assert.Error(t, c.ReplyNote(context.Background(), "", "x"))
}
