package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// ConversationTemplate renders a conversation by dispatching each message
// to the formatter for its role and joining turns with Separator.
//
// Tool support is a capability, not a subtype: a template understands
// function-call turns and tool observations exactly when Function and
// Observation are set.
type ConversationTemplate struct {
	TemplateName string

	System    StringFormatter
	User      StringFormatter
	Assistant StringFormatter

	Function    *StringFormatter
	Observation *StringFormatter

	Separator string
}

// Name implements conversation.Renderer.
func (t *ConversationTemplate) Name() string { return t.TemplateName }

// Render formats each message with its role's formatter. Assistant and
// function turns are reported as generation spans so the encoder treats
// declarative output the same way as template-language output. The render
// flags carry no meaning here: the declarative model has no control flow.
func (t *ConversationTemplate) Render(messages []conversation.Message, _ []conversation.ToolSpec, _ conversation.RenderOptions) (conversation.Rendered, error) {
	var sb strings.Builder
	var spans []conversation.Span

	for i, msg := range messages {
		if i > 0 {
			sb.WriteString(t.Separator)
		}

		var turn string
		target := false
		switch {
		case msg.Role == conversation.RoleSystem:
			turn = t.System.Format(msg.Content)

		case msg.Role == conversation.RoleUser:
			turn = t.User.Format(msg.Content)

		case msg.Role == conversation.RoleAssistant && len(msg.ToolCalls) > 0 && t.Function != nil:
			turn = t.Function.Format(formatToolCalls(msg.ToolCalls))
			target = true

		case msg.Role == conversation.RoleAssistant:
			turn = t.Assistant.Format(msg.Content)
			target = true

		case msg.Role == conversation.RoleTool:
			if t.Observation == nil {
				return conversation.Rendered{}, fmt.Errorf("template %q: %w: tool messages need an observation formatter", t.TemplateName, ErrUnsupportedRole)
			}
			turn = t.Observation.Format(msg.Content)

		default:
			return conversation.Rendered{}, fmt.Errorf("template %q: %w: %q", t.TemplateName, ErrUnsupportedRole, msg.Role)
		}

		start := sb.Len()
		sb.WriteString(turn)
		if target {
			spans = append(spans, conversation.Span{Start: start, End: sb.Len()})
		}
	}
	return conversation.Rendered{Text: sb.String(), Spans: spans}, nil
}

// formatToolCalls synthesizes the content of a function-call turn: one
// `{"name": ..., "arguments": ...}` object per call, newline separated.
// Arguments pass through verbatim.
func formatToolCalls(calls []conversation.ToolCall) string {
	var sb strings.Builder
	for i, c := range calls {
		if i > 0 {
			sb.WriteByte('\n')
		}
		name, _ := json.Marshal(c.Name)
		sb.WriteString(`{"name": `)
		sb.Write(name)
		sb.WriteString(`, "arguments": `)
		if len(c.Arguments) > 0 {
			sb.Write(c.Arguments)
		} else {
			sb.WriteString("{}")
		}
		sb.WriteByte('}')
	}
	return sb.String()
}
