package template

import (
	"errors"
	"fmt"
)

// Evaluation failure categories.
var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTypeMismatch      = errors.New("type mismatch")
)

// ParseError reports malformed template source. Parsing is all-or-nothing:
// a ParseError is fatal to the template, there is no partial parse.
type ParseError struct {
	Name  string // template name
	Pos   int    // byte offset into the source
	Token string // offending token, if any
	Msg   string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("template %q: parse error at offset %d near %q: %s", e.Name, e.Pos, e.Token, e.Msg)
	}
	return fmt.Sprintf("template %q: parse error at offset %d: %s", e.Name, e.Pos, e.Msg)
}

// EvalError reports a failure while evaluating a parsed template. It wraps
// one of the categories above and carries enough context to locate the
// offending node in the source.
type EvalError struct {
	Name string // template name
	Node string // node kind, e.g. "output", "for"
	Pos  int    // byte offset of the node in the source
	Err  error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("template %q: %s node at offset %d: %v", e.Name, e.Node, e.Pos, e.Err)
}

// Unwrap exposes the failure category for errors.Is.
func (e *EvalError) Unwrap() error {
	return e.Err
}
