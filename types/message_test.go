package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageAssignsID(t *testing.T) {
	a := NewTextMessage(RoleUser, "hi")
	b := NewTextMessage(RoleUser, "hi")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMessageText(t *testing.T) {
	msg := NewMessage(RoleAssistant,
		TextBlock("first"),
		ToolUseBlock("tu_1", "search", json.RawMessage(`{"q":"go"}`)),
		TextBlock(""),
		TextBlock("second"),
	)
	assert.Equal(t, "first\nsecond", msg.Text())

	var nilMsg *Message
	assert.Equal(t, "", nilMsg.Text())
	assert.False(t, nilMsg.HasContentType(ContentTypeText))
}

func TestHasContentType(t *testing.T) {
	msg := NewMessage(RoleUser,
		ToolResultBlock("tu_1", "done", false),
		ImageBlock(&ImageSource{Type: "url", URL: "https://example.com/a.png"}),
	)

	assert.True(t, msg.HasContentType(ContentTypeToolResult))
	assert.True(t, msg.HasContentType(ContentTypeImage))
	assert.False(t, msg.HasContentType(ContentTypeToolUse))
}

func TestContentBlockJSON(t *testing.T) {
	data, err := json.Marshal(ToolResultBlock("tu_1", "boom", true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_result","tool_use_id":"tu_1","content":"boom","is_error":true}`, string(data))
}
