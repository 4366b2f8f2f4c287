package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-canvas/internal/events"
)

type failingNotes struct{}

func (failingNotes) ReplyNote(context.Context, string, string) error {
	return errors.New("conversation api down")
}

func TestNotifierFormats(t *testing.T) {
	notes := &recordingNotes{}
	n := NewNotifier(notes, nil)

	require.NoError(t, n.NotifySuccess(context.Background(), "c1", 42, "https://desk.example.com/a/tickets/42"))
	require.NoError(t, n.NotifyFailure(context.Background(), "c1", "ticketing <unavailable>"))

	got := notes.notes("c1")
	require.Len(t, got, 2)
	assert.Equal(t, `<p>Ticket #42 created: <a href="https://desk.example.com/a/tickets/42">https://desk.example.com/a/tickets/42</a></p>`, got[0])
	assert.Equal(t, "<p>Ticket creation failed: ticketing &lt;unavailable&gt;</p>", got[1])
}

func TestNotifierSkipsWithoutConversation(t *testing.T) {
	notes := &recordingNotes{}
	n := NewNotifier(notes, nil)
	assert.NoError(t, n.NotifySuccess(context.Background(), "", 1, "u"))
	assert.Empty(t, notes.bodies)
}

func TestNotifierHandlersViaDispatcher(t *testing.T) {
	notes := &recordingNotes{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotifier(notes, nil).RegisterHandlers(dispatcher)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:           events.EventTicketCreated,
		ConversationID: "c9",
		Payload:        events.TicketCreatedPayload{TicketID: 7, TicketURL: "https://x/7"},
	}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:           events.EventTicketCreationFailed,
		ConversationID: "c9",
		Payload:        events.TicketCreationFailedPayload{Code: "UPSTREAM_UNAVAILABLE", Message: "boom"},
	}))
	assert.Len(t, notes.notes("c9"), 2)

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, Payload: "nope"})
	assert.Error(t, err)
}

func TestNotifierPropagatesSendErrors(t *testing.T) {
	n := NewNotifier(failingNotes{}, nil)
	err := n.NotifyFailure(context.Background(), "c1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c1")
}
