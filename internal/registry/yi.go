package registry

import "github.com/chatspan-ml/chatspan/internal/formatter"

// Yi 1.5 renders the system prompt bare, without the ChatML wrapper, and
// joins turns with no separator.
func newYi15Template() *formatter.ConversationTemplate {
	return &formatter.ConversationTemplate{
		TemplateName: "yi1_5",
		System: formatter.MustStringFormatter(
			formatter.Placeholder("content"),
		),
		User: formatter.MustStringFormatter(
			formatter.SpecialToken("<|im_start|>"),
			formatter.Literal("user\n"),
			formatter.Placeholder("content"),
			formatter.SpecialToken("<|im_end|>"),
			formatter.Literal("\n"),
		),
		Assistant: formatter.MustStringFormatter(
			formatter.SpecialToken("<|im_start|>"),
			formatter.Literal("assistant\n"),
			formatter.Placeholder("content"),
			formatter.SpecialToken("<|im_end|>"),
			formatter.Literal("\n"),
		),
	}
}
