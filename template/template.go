// Package template provides the embedded chat-template language.
//
// This package wraps the internal template implementation and provides a
// clean public API for parsing and rendering.
//
// Example usage:
//
//	import "github.com/chatspan-ml/chatspan/template"
//
//	tmpl, err := template.Parse("demo",
//	    `{%- for m in messages %}{{ m.role }}: {{ m.content }}{{ '\n' }}{%- endfor %}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := tmpl.Render(messages, nil, conversation.RenderOptions{})
package template

import (
	"github.com/chatspan-ml/chatspan/internal/template"
)

// Template is a parsed, immutable template safe for concurrent renders.
type Template = template.Template

// ParseError reports malformed template source.
type ParseError = template.ParseError

// EvalError reports a failure while rendering a parsed template.
type EvalError = template.EvalError

// Evaluation failure categories, matchable with errors.Is.
var (
	ErrUndefinedVariable = template.ErrUndefinedVariable
	ErrIndexOutOfRange   = template.ErrIndexOutOfRange
	ErrTypeMismatch      = template.ErrTypeMismatch
)

// Parse compiles template source. The name is used in error messages and
// as the registry key.
func Parse(name, src string) (*Template, error) {
	return template.Parse(name, src)
}

// MustParse is Parse for static template sources; it panics on error.
func MustParse(name, src string) *Template {
	return template.MustParse(name, src)
}
