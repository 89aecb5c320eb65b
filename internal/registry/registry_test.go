package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatspan-ml/chatspan/internal/conversation"
	"github.com/chatspan-ml/chatspan/internal/template"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	tmpl := template.MustParse("custom", "{{ messages[0].content }}")
	require.NoError(t, r.Register(tmpl))

	got, err := r.Lookup("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Name())
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(template.MustParse("dup", "a")))
	err := r.Register(template.MustParse("dup", "b"))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestRegistry_UnknownTemplate(t *testing.T) {
	_, err := New().Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(template.MustParse("zz", "a")))
	require.NoError(t, r.Register(template.MustParse("aa", "b")))
	require.NoError(t, r.Register(template.MustParse("mm", "c")))
	assert.Equal(t, []string{"aa", "mm", "zz"}, r.Names())
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	want := []string{
		"chatml",
		"qwen2",
		"qwen2_5",
		"qwen2_5_1m",
		"qwen2_5_math",
		"qwen2_for_tool",
		"qwen3",
		"qwen_qwq",
		"yi1_5",
	}
	assert.Equal(t, want, Names())

	for _, name := range want {
		r, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, r.Name())
	}
}

func mustLookupRender(t *testing.T, name string, msgs []conversation.Message, tools []conversation.ToolSpec, opts conversation.RenderOptions) conversation.Rendered {
	t.Helper()
	r, err := Lookup(name)
	require.NoError(t, err)
	out, err := r.Render(msgs, tools, opts)
	require.NoError(t, err)
	return out
}

func spanTexts(r conversation.Rendered) []string {
	texts := make([]string, 0, len(r.Spans))
	for _, s := range r.Spans {
		texts = append(texts, r.Text[s.Start:s.End])
	}
	return texts
}

func TestQwen25_BasicConversation(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "You are helpful."},
		{Role: conversation.RoleUser, Content: "Hi!"},
		{Role: conversation.RoleAssistant, Content: "Hello!"},
	}
	out := mustLookupRender(t, "qwen2_5", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>system\nYou are helpful.<|im_end|>\n"+
			"<|im_start|>user\nHi!<|im_end|>\n"+
			"<|im_start|>assistant\nHello!<|im_end|>\n",
		out.Text)
	assert.Equal(t, []string{"Hello!<|im_end|>\n"}, spanTexts(out))
}

func TestQwen25_DefaultSystemAndGenerationPrompt(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "Hi!"},
	}
	out := mustLookupRender(t, "qwen2_5", msgs, nil, conversation.RenderOptions{AddGenerationPrompt: true})
	assert.Equal(t,
		"<|im_start|>system\nYou are Qwen, created by Alibaba Cloud. You are a helpful assistant.<|im_end|>\n"+
			"<|im_start|>user\nHi!<|im_end|>\n"+
			"<|im_start|>assistant\n",
		out.Text)
	assert.Empty(t, out.Spans)
}

func TestQwen25Variants_DefaultSystem(t *testing.T) {
	msgs := []conversation.Message{{Role: conversation.RoleUser, Content: "q"}}

	tests := []struct {
		name   string
		system string
	}{
		{name: "qwen2_5_1m", system: "You are a helpful assistant."},
		{name: "qwen2_5_math", system: `Please reason step by step, and put your final answer within \boxed{}.`},
		{name: "qwen_qwq", system: "You are a helpful and harmless assistant. You are Qwen developed by Alibaba. You should think step-by-step."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustLookupRender(t, tt.name, msgs, nil, conversation.RenderOptions{})
			assert.Equal(t,
				"<|im_start|>system\n"+tt.system+"<|im_end|>\n<|im_start|>user\nq<|im_end|>\n",
				out.Text)
		})
	}
}

func TestQwen25_ToolResponseBatching(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleTool, Content: "A"},
		{Role: conversation.RoleTool, Content: "B"},
		{Role: conversation.RoleUser, Content: "C"},
	}
	out := mustLookupRender(t, "qwen2_5", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>system\nYou are Qwen, created by Alibaba Cloud. You are a helpful assistant.<|im_end|>\n"+
			"<|im_start|>user\n<tool_response>\nA\n</tool_response>\n<tool_response>\nB\n</tool_response><|im_end|>\n"+
			"<|im_start|>user\nC<|im_end|>\n",
		out.Text)
}

func TestQwen25_AssistantToolCalls(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "What's the weather in Oslo?"},
		{Role: conversation.RoleAssistant, ToolCalls: []conversation.ToolCall{
			{Name: "get_weather", Arguments: []byte(`{"city": "Oslo"}`)},
		}},
	}
	out := mustLookupRender(t, "qwen2_5", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>system\nYou are Qwen, created by Alibaba Cloud. You are a helpful assistant.<|im_end|>\n"+
			"<|im_start|>user\nWhat's the weather in Oslo?<|im_end|>\n"+
			"<|im_start|>assistant"+
			"\n<tool_call>\n{\"name\": \"get_weather\", \"arguments\": {\"city\": \"Oslo\"}}\n</tool_call><|im_end|>\n",
		out.Text)
	assert.Equal(t,
		[]string{"\n<tool_call>\n{\"name\": \"get_weather\", \"arguments\": {\"city\": \"Oslo\"}}\n</tool_call><|im_end|>\n"},
		spanTexts(out))
}

func TestQwen25_ToolDeclarations(t *testing.T) {
	msgs := []conversation.Message{{Role: conversation.RoleUser, Content: "q"}}
	tools := []conversation.ToolSpec{
		conversation.ToolSpec(`{"name": "f", "description": "d"}`),
	}
	out := mustLookupRender(t, "qwen2_5", msgs, tools, conversation.RenderOptions{})
	assert.Contains(t, out.Text, "<|im_start|>system\nYou are Qwen, created by Alibaba Cloud. You are a helpful assistant.\n\n# Tools")
	assert.Contains(t, out.Text, "<tools>\n{\"name\": \"f\", \"description\": \"d\"}\n</tools>")
	assert.Contains(t, out.Text, "<tool_call>\n{\"name\": <function-name>, \"arguments\": <args-json-object>}\n</tool_call><|im_end|>\n")
}

func TestQwen3_ThinkBlockOnLastTurn(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "Solve 1+1"},
		{Role: conversation.RoleAssistant, Content: "<think>\nadd\n</think>\n\n2"},
	}
	out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>user\nSolve 1+1<|im_end|>\n"+
			"<|im_start|>assistant\n<think>\nadd\n</think>\n\n2<|im_end|>\n",
		out.Text)
	assert.Equal(t,
		[]string{"<|im_start|>assistant\n<think>\nadd\n</think>\n\n2<|im_end|>\n"},
		spanTexts(out))
}

func TestQwen3_StripsThinkBeforeLastQuery(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "q1"},
		{Role: conversation.RoleAssistant, Content: "<think>\nr1\n</think>\n\na1"},
		{Role: conversation.RoleUser, Content: "q2"},
		{Role: conversation.RoleAssistant, Content: "<think>\nr2\n</think>\n\na2"},
	}
	out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>user\nq1<|im_end|>\n"+
			"<|im_start|>assistant\na1<|im_end|>\n"+
			"<|im_start|>user\nq2<|im_end|>\n"+
			"<|im_start|>assistant\n<think>\nr2\n</think>\n\na2<|im_end|>\n",
		out.Text)
	require.Len(t, out.Spans, 2)
	assert.Equal(t, "<|im_start|>assistant\na1<|im_end|>\n", spanTexts(out)[0])
}

func TestQwen3_MultiStepToolUse(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "look it up"},
		{
			Role:             conversation.RoleAssistant,
			ReasoningContent: "r1",
			ToolCalls: []conversation.ToolCall{
				{Name: "get", Arguments: []byte(`{"u": 1}`)},
			},
		},
		{Role: conversation.RoleTool, Content: "obs"},
		{Role: conversation.RoleAssistant, Content: "<think>\nr2\n</think>\n\nfinal"},
	}
	out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>user\nlook it up<|im_end|>\n"+
			"<|im_start|>assistant\n<think>\nr1\n</think>\n\n"+
			"<tool_call>\n{\"name\": \"get\", \"arguments\": {\"u\": 1}}\n</tool_call><|im_end|>\n"+
			"<|im_start|>user\n<tool_response>\nobs\n</tool_response><|im_end|>\n"+
			"<|im_start|>assistant\n<think>\nr2\n</think>\n\nfinal<|im_end|>\n",
		out.Text)
	require.Len(t, out.Spans, 2)
}

func TestQwen3_ToolResponseUserNotAQuery(t *testing.T) {
	// A user turn that is a wrapped tool response must not become the last
	// query, so the earlier assistant turn keeps its think block.
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "real question"},
		{Role: conversation.RoleAssistant, Content: "<think>\nr1\n</think>\n\nstep"},
		{Role: conversation.RoleUser, Content: "<tool_response>ok</tool_response>"},
		{Role: conversation.RoleAssistant, Content: "<think>\nr2\n</think>\n\ndone"},
	}
	out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{})
	assert.Contains(t, out.Text, "<|im_start|>assistant\n<think>\nr1\n</think>\n\nstep<|im_end|>\n")
	assert.Contains(t, out.Text, "<|im_start|>assistant\n<think>\nr2\n</think>\n\ndone<|im_end|>\n")
}

func TestQwen3_GenerationPromptThinking(t *testing.T) {
	msgs := []conversation.Message{{Role: conversation.RoleUser, Content: "hi"}}

	t.Run("thinking left enabled", func(t *testing.T) {
		out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{AddGenerationPrompt: true})
		assert.Equal(t, "<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n", out.Text)
	})

	t.Run("thinking disabled", func(t *testing.T) {
		off := false
		out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{
			AddGenerationPrompt: true,
			EnableThinking:      &off,
		})
		assert.Equal(t,
			"<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n<think>\n\n</think>\n\n",
			out.Text)
	})

	t.Run("thinking explicitly enabled", func(t *testing.T) {
		on := true
		out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{
			AddGenerationPrompt: true,
			EnableThinking:      &on,
		})
		assert.Equal(t, "<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n", out.Text)
	})
}

func TestQwen3_StringToolArguments(t *testing.T) {
	// Arguments already serialized as a JSON string pass through verbatim.
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "go"},
		{Role: conversation.RoleAssistant, ToolCalls: []conversation.ToolCall{
			{Name: "search", Arguments: []byte(`"{\"q\": 1}"`)},
		}},
	}
	out := mustLookupRender(t, "qwen3", msgs, nil, conversation.RenderOptions{})
	assert.Contains(t, out.Text, "<tool_call>\n{\"name\": \"search\", \"arguments\": {\"q\": 1}}\n</tool_call>")
}

func TestChatML_Render(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "sys"},
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	out := mustLookupRender(t, "chatml", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>system\nsys<|im_end|>\n"+
			"<|im_start|>user\nhi<|im_end|>\n"+
			"<|im_start|>assistant\nhello<|im_end|>\n",
		out.Text)
	assert.Equal(t, []string{"hello<|im_end|>\n"}, spanTexts(out))

	out = mustLookupRender(t, "chatml", msgs[:2], nil, conversation.RenderOptions{AddGenerationPrompt: true})
	assert.Equal(t,
		"<|im_start|>system\nsys<|im_end|>\n<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\n",
		out.Text)
}

func TestQwen2_Declarative(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	out := mustLookupRender(t, "qwen2", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>user\nhi<|im_end|>\n\n<|im_start|>assistant\nhello<|im_end|>\n",
		out.Text)
	assert.Equal(t, []string{"<|im_start|>assistant\nhello<|im_end|>\n"}, spanTexts(out))
}

func TestQwen2ForTool_Observation(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleAssistant, ToolCalls: []conversation.ToolCall{
			{Name: "f", Arguments: []byte(`{"a": 1}`)},
		}},
		{Role: conversation.RoleTool, Content: "ok"},
	}
	out := mustLookupRender(t, "qwen2_for_tool", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"<|im_start|>assistant\n{\"name\": \"f\", \"arguments\": {\"a\": 1}}<|im_end|>\n"+
			"\n<|im_start|>tool\nok<|im_end|>\n",
		out.Text)
	require.Len(t, out.Spans, 1)

	// Plain qwen2 has no observation formatter.
	r, err := Lookup("qwen2")
	require.NoError(t, err)
	_, err = r.Render(msgs[1:], nil, conversation.RenderOptions{})
	assert.Error(t, err)
}

func TestYi15_BareSystemPrompt(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "sys"},
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	out := mustLookupRender(t, "yi1_5", msgs, nil, conversation.RenderOptions{})
	assert.Equal(t,
		"sys<|im_start|>user\nhi<|im_end|>\n<|im_start|>assistant\nhello<|im_end|>\n",
		out.Text)
	assert.Equal(t, []string{"<|im_start|>assistant\nhello<|im_end|>\n"}, spanTexts(out))
}
