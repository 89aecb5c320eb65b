// Package chatspan renders structured conversations into linear text and
// token streams for language-model fine-tuning, tracking which sub-spans
// of the stream are generation targets so a training pipeline can mask its
// loss to only those spans.
//
// Example usage:
//
//	msgs := []conversation.Message{
//	    {Role: conversation.RoleUser, Content: "Hi!"},
//	    {Role: conversation.RoleAssistant, Content: "Hello."},
//	}
//	out, err := chatspan.Apply("qwen2_5", msgs, nil, conversation.RenderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc, err := chatspan.ApplyAndEncode("qwen2_5", msgs, nil, conversation.RenderOptions{}, tok)
package chatspan

import (
	"github.com/chatspan-ml/chatspan/conversation"
	"github.com/chatspan-ml/chatspan/encoder"
	"github.com/chatspan-ml/chatspan/registry"
)

// Apply renders a conversation with the named template from the default
// registry.
func Apply(name string, messages []conversation.Message, tools []conversation.ToolSpec, opts conversation.RenderOptions) (conversation.Rendered, error) {
	tmpl, err := registry.Lookup(name)
	if err != nil {
		return conversation.Rendered{}, err
	}
	return tmpl.Render(messages, tools, opts)
}

// ApplyAndEncode renders a conversation and encodes it into token ids and
// loss labels, the form a training loop consumes.
func ApplyAndEncode(name string, messages []conversation.Message, tools []conversation.ToolSpec, opts conversation.RenderOptions, tok encoder.OffsetTokenizer) (encoder.Encoding, error) {
	out, err := Apply(name, messages, tools, opts)
	if err != nil {
		return encoder.Encoding{}, err
	}
	return encoder.Encode(out, tok)
}
