package chatspan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatspan-ml/chatspan"
	"github.com/chatspan-ml/chatspan/conversation"
	"github.com/chatspan-ml/chatspan/encoder"
	"github.com/chatspan-ml/chatspan/registry"
)

func TestApply(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "Hi!"},
		{Role: conversation.RoleAssistant, Content: "Hello."},
	}
	out, err := chatspan.Apply("chatml", msgs, nil, conversation.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t,
		"<|im_start|>user\nHi!<|im_end|>\n<|im_start|>assistant\nHello.<|im_end|>\n",
		out.Text)
	assert.Equal(t, []string{"Hello.<|im_end|>\n"}, out.GenerationText())
}

func TestApply_UnknownTemplate(t *testing.T) {
	_, err := chatspan.Apply("nope", nil, nil, conversation.RenderOptions{})
	assert.ErrorIs(t, err, registry.ErrUnknownTemplate)
}

func TestApplyAndEncode(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "Hi!"},
		{Role: conversation.RoleAssistant, Content: "Hello."},
	}
	tok := encoder.NewWordTokenizer()
	enc, err := chatspan.ApplyAndEncode("chatml", msgs, nil, conversation.RenderOptions{}, tok)
	require.NoError(t, err)
	require.Equal(t, len(enc.IDs), len(enc.Labels))

	masked, kept := 0, 0
	for i, l := range enc.Labels {
		if l == encoder.IgnoreIndex {
			masked++
		} else {
			kept++
			assert.Equal(t, enc.IDs[i], l)
		}
	}
	assert.NotZero(t, masked)
	assert.NotZero(t, kept)
}
