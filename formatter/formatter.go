// Package formatter provides the declarative per-role template model for
// chat formats that need no control flow.
//
// Example usage:
//
//	user := formatter.MustStringFormatter(
//	    formatter.SpecialToken("<|im_start|>"),
//	    formatter.Literal("user\n"),
//	    formatter.Placeholder("content"),
//	    formatter.SpecialToken("<|im_end|>"),
//	    formatter.Literal("\n"),
//	)
package formatter

import (
	"github.com/chatspan-ml/chatspan/internal/formatter"
)

// ErrUnsupportedRole reports a message role the template cannot format.
var ErrUnsupportedRole = formatter.ErrUnsupportedRole

// ComponentKind tags the component variants.
type ComponentKind = formatter.ComponentKind

// Component kinds.
const (
	KindLiteral      = formatter.KindLiteral
	KindPlaceholder  = formatter.KindPlaceholder
	KindSpecialToken = formatter.KindSpecialToken
)

// Component is one element of a formatter.
type Component = formatter.Component

// Literal is fixed text emitted verbatim.
func Literal(text string) Component { return formatter.Literal(text) }

// Placeholder is the slot the message content fills.
func Placeholder(field string) Component { return formatter.Placeholder(field) }

// SpecialToken renders the symbolic text form of a special token.
func SpecialToken(tag string) Component { return formatter.SpecialToken(tag) }

// StringFormatter renders one message around a single placeholder.
type StringFormatter = formatter.StringFormatter

// NewStringFormatter builds a formatter; exactly one placeholder is
// required.
func NewStringFormatter(components ...Component) (StringFormatter, error) {
	return formatter.NewStringFormatter(components...)
}

// MustStringFormatter is NewStringFormatter for static tables; it panics
// on error.
func MustStringFormatter(components ...Component) StringFormatter {
	return formatter.MustStringFormatter(components...)
}

// ConversationTemplate dispatches messages to per-role formatters.
type ConversationTemplate = formatter.ConversationTemplate
