package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-canvas/internal/domain"
)

func TestFlexibleID(t *testing.T) {
	var v struct {
		A FlexibleID `json:"a"`
		B FlexibleID `json:"b"`
		C FlexibleID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12345678901,"b":" x1 ","c":null}`), &v))
	assert.Equal(t, FlexibleID("12345678901"), v.A)
	assert.Equal(t, FlexibleID("x1"), v.B)
	assert.Equal(t, FlexibleID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":{}}`), &v))
}

func TestCanvasRequestAccessors(t *testing.T) {
	var req CanvasRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"input_values":{"email":"a@b.com","priority_id":2,"urgent":true,"skip":null},
		"context":{"conversation_id":"ctx-1"},
		"contact":{"email":""},
		"customer":{"email":"cust@example.com"}
	}`), &req))

	assert.Equal(t, "ctx-1", req.ConversationID())
	assert.Equal(t, "cust@example.com", req.ContactEmail())
	assert.Empty(t, req.AdminID())
	assert.Equal(t, map[string]string{"email": "a@b.com", "priority_id": "2", "urgent": "true"}, req.Inputs())
}

func TestNewOperationResponse(t *testing.T) {
	started := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	finished := started.Add(time.Second)
	id := int64(7)
	resp := NewOperationResponse(domain.OperationRecord{
		Identity: "a@b.com", State: domain.OperationCompleted, StartedAt: started, FinishedAt: &finished, TicketID: &id,
	})
	assert.Equal(t, "2026-10-14T09:00:00.000Z", resp.StartedAt)
	require.NotNil(t, resp.FinishedAt)
	assert.Equal(t, "2026-10-14T09:00:01.000Z", *resp.FinishedAt)
}
