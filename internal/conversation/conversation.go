package conversation

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single function invocation requested by an assistant turn.
//
// Arguments is either a JSON object or a JSON string holding pre-serialized
// arguments; templates can distinguish the two with the `is string` test.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one turn of a conversation. The rendering engine only reads it.
type Message struct {
	Role             Role       `json:"role"`
	Content          string     `json:"content"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
}

// ToolSpec describes a callable tool. It is opaque to the engine: templates
// serialize it verbatim (key order preserved) and never interpret it.
type ToolSpec = json.RawMessage

// Span is a half-open byte range [Start, End) in rendered output text.
// Spans mark generation targets: the portions a model is expected to produce.
type Span struct {
	Start int
	End   int
}

// Rendered is the result of applying a template to a conversation.
//
// Spans are non-overlapping, ordered by Start, and lie within
// [0, len(Text)).
type Rendered struct {
	Text  string
	Spans []Span
}

// GenerationText returns the substring of each generation span, in order.
func (r Rendered) GenerationText() []string {
	out := make([]string, 0, len(r.Spans))
	for _, s := range r.Spans {
		out = append(out, r.Text[s.Start:s.End])
	}
	return out
}

// RenderOptions carries the per-render flags supplied by the caller.
type RenderOptions struct {
	// AddGenerationPrompt appends the assistant turn opener so a model can
	// continue the conversation.
	AddGenerationPrompt bool

	// EnableThinking controls thinking blocks for reasoning-capable formats.
	// nil means the flag is not set at all: templates observe
	// `enable_thinking is defined` as false.
	EnableThinking *bool
}

// Renderer turns a conversation into text plus generation spans.
//
// Implementations must be safe for concurrent use: rendering is pure and
// touches no shared mutable state.
type Renderer interface {
	Name() string
	Render(messages []Message, tools []ToolSpec, opts RenderOptions) (Rendered, error)
}
