package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormViewFlagsOnlyErroredFields(t *testing.T) {
	view := FormView(FormData{
		Values:    FormValues{Subject: "Help", MailboxID: "9"},
		Errors:    map[string]string{FieldEmail: "Email is required"},
		Mailboxes: []Option{NewOption("1", "Support")},
	})

	assert.Equal(t, KindForm, view.Kind)
	assert.Equal(t, []string{FieldEmail}, FlaggedFields(view.Response))
	msg, ok := FieldError(view.Response, FieldEmail)
	require.True(t, ok)
	assert.Equal(t, "Email is required", msg)

	for _, c := range view.Response.Canvas.Content.Components {
		if c.ID == FieldMailbox {
			assert.Empty(t, c.Value, "unknown mailbox must not be preselected")
		}
		if c.ID == FieldSubject {
			assert.Equal(t, "Help", c.Value)
		}
	}
}

func TestFormViewShowsErrorForOmittedDropdown(t *testing.T) {
	view := FormView(FormData{
		Values: FormValues{Email: "a@b.com", Subject: "Help", StatusID: "abc"},
		Errors: map[string]string{FieldStatus: "Select a valid option"},
	})

	assert.Equal(t, []string{FieldStatus}, FlaggedFields(view.Response))
	msg, ok := FieldError(view.Response, FieldStatus)
	require.True(t, ok)
	assert.Equal(t, "Status: Select a valid option", msg)
	for _, c := range view.Response.Canvas.Content.Components {
		assert.NotEqual(t, "dropdown", c.Type)
	}
}

func TestDefaultViewJSONShape(t *testing.T) {
	view := DefaultView(DefaultData{
		Recent: []TicketSummary{{ID: 42, Subject: "Printer", Status: "Open", URL: "https://desk.example.com/a/tickets/42"}},
		Notice: &Notice{Text: "Creating ticket…", Style: "muted"},
	})

	raw, err := json.Marshal(view.Response)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	components := decoded["canvas"].(map[string]any)["content"].(map[string]any)["components"].([]any)
	first := components[0].(map[string]any)
	assert.Equal(t, "text", first["type"])
	assert.Equal(t, "Creating ticket…", first["text"])

	var sawTicket, sawCreate bool
	for _, c := range components {
		m := c.(map[string]any)
		if m["id"] == "ticket_42" {
			sawTicket = true
			assert.Equal(t, "url", m["action"].(map[string]any)["type"])
		}
		if m["id"] == ActionOpenForm {
			sawCreate = true
		}
	}
	assert.True(t, sawTicket)
	assert.True(t, sawCreate)
}

func TestErrorViewHasRetry(t *testing.T) {
	view := ErrorView("", ActionOpenForm)
	assert.Equal(t, KindError, view.Kind)

	var ids []string
	for _, c := range view.Response.Canvas.Content.Components {
		if c.Type == "button" {
			ids = append(ids, c.ID)
		}
	}
	assert.Equal(t, []string{ActionOpenForm, ActionCancel}, ids)
}
