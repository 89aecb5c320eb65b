package template

import (
	"fmt"

	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// Template is a parsed template. It is immutable and safe to share across
// concurrent renders; all per-render state lives in the evaluator.
type Template struct {
	name   string
	source string
	nodes  []Node
}

// Name returns the registry name the template was parsed under.
func (t *Template) Name() string { return t.name }

// Source returns the original template source text.
func (t *Template) Source() string { return t.source }

// Render evaluates the template against a conversation and returns the
// output text plus the generation spans recorded by generation blocks.
func (t *Template) Render(messages []conversation.Message, tools []conversation.ToolSpec, opts conversation.RenderOptions) (conversation.Rendered, error) {
	root, err := buildContext(messages, tools, opts)
	if err != nil {
		return conversation.Rendered{}, fmt.Errorf("template %q: %w", t.name, err)
	}

	ev := &evaluator{tmpl: t, scopes: []map[string]Value{root}}
	if err := ev.evalNodes(t.nodes); err != nil {
		return conversation.Rendered{}, err
	}
	return conversation.Rendered{Text: ev.buf.String(), Spans: ev.spans}, nil
}

// buildContext converts the caller's conversation into template values.
// The tools variable is always defined (an empty list is simply falsy);
// enable_thinking is defined only when the caller set the flag.
func buildContext(messages []conversation.Message, tools []conversation.ToolSpec, opts conversation.RenderOptions) (map[string]Value, error) {
	msgVals := make([]Value, len(messages))
	for i, m := range messages {
		v, err := messageValue(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgVals[i] = v
	}

	toolVals := make([]Value, len(tools))
	for i, spec := range tools {
		v, err := FromJSON(spec)
		if err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}
		toolVals[i] = v
	}

	root := map[string]Value{
		"messages":              List(msgVals),
		"tools":                 List(toolVals),
		"add_generation_prompt": Bool(opts.AddGenerationPrompt),
	}
	if opts.EnableThinking != nil {
		root["enable_thinking"] = Bool(*opts.EnableThinking)
	}
	return root, nil
}

func messageValue(m conversation.Message) (Value, error) {
	fields := []Field{
		{Key: "role", Val: Str(string(m.Role))},
		{Key: "content", Val: Str(m.Content)},
	}

	if len(m.ToolCalls) > 0 {
		calls := make([]Value, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			args := Object(nil)
			if len(tc.Arguments) > 0 {
				v, err := FromJSON(tc.Arguments)
				if err != nil {
					return Value{}, fmt.Errorf("tool call %q: %w", tc.Name, err)
				}
				args = v
			}
			calls[i] = Object([]Field{
				{Key: "name", Val: Str(tc.Name)},
				{Key: "arguments", Val: args},
			})
		}
		fields = append(fields, Field{Key: "tool_calls", Val: List(calls)})
	}

	if m.ReasoningContent != "" {
		fields = append(fields, Field{Key: "reasoning_content", Val: Str(m.ReasoningContent)})
	}
	return Object(fields), nil
}
