package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendered_GenerationText(t *testing.T) {
	r := Rendered{
		Text: "prompt REPLY more SECOND",
		Spans: []Span{
			{Start: 7, End: 12},
			{Start: 18, End: 24},
		},
	}
	assert.Equal(t, []string{"REPLY", "SECOND"}, r.GenerationText())
	assert.Empty(t, Rendered{Text: "no spans"}.GenerationText())
}

func TestMessage_JSONShape(t *testing.T) {
	raw := `{"role": "assistant", "content": "", "tool_calls": [{"name": "get", "arguments": {"q": 1}}]}`
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"q": 1}`, string(msg.ToolCalls[0].Arguments))

	// Optional fields stay out of serialized form when empty.
	out, err := json.Marshal(Message{Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"role":"user","content":"hi"}`, string(out))
}
