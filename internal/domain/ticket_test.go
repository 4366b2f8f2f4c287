package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoicesDecodeShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Choices
	}{
		{"status map", `{"3":["Pending","Awaiting"],"2":["Open","Being Processed"]}`, Choices{{2, "Open"}, {3, "Pending"}}},
		{"priority map", `{"High":3,"Low":1}`, Choices{{1, "Low"}, {3, "High"}}},
		{"array", `[{"value":7,"label":"Chat"},{"id":1,"label":"Email"}]`, Choices{{7, "Chat"}, {1, "Email"}}},
		{"strings", `["a","b"]`, nil},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Choices
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTicketFieldDecodesInsideList(t *testing.T) {
	raw := `[{"id":10,"name":"status","label":"Status","choices":{"2":["Open","Open"]}},{"id":11,"name":"cf_team","choices":["x"]}]`
	var fields []TicketField
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, Choices{{2, "Open"}}, fields[0].Choices)
	assert.Nil(t, fields[1].Choices)
}

func TestAuthorDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", Author{Name: "Ada", Email: "a@b.com"}.DisplayName())
	assert.Equal(t, "a@b.com", Author{Email: "a@b.com"}.DisplayName())
	assert.Equal(t, "bot", Author{Type: "bot"}.DisplayName())
	assert.Equal(t, "Unknown", Author{}.DisplayName())
}
