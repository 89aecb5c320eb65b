package registry

import (
	"github.com/chatspan-ml/chatspan/internal/conversation"
	"github.com/chatspan-ml/chatspan/internal/template"
)

// builtins returns the fixed built-in template set. Template sources are
// static, so a parse failure here is a programmer error and panics via
// MustParse.
func builtins() []conversation.Renderer {
	return []conversation.Renderer{
		newQwen2Template(),
		newQwen2ForToolTemplate(),
		newYi15Template(),
		template.MustParse("chatml", chatmlSource),
		template.MustParse("qwen2_5", qwen25Source(qwen25System)),
		template.MustParse("qwen2_5_1m", qwen25Source(qwen251MSystem)),
		template.MustParse("qwen2_5_math", qwen25Source(qwen25MathSystem)),
		template.MustParse("qwen_qwq", qwen25Source(qwenQwQSystem)),
		template.MustParse("qwen3", qwen3Source),
	}
}
