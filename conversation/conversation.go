// Package conversation exposes the shared data model: messages, tool
// calls, render options, and rendered output with generation spans.
//
// Example usage:
//
//	msgs := []conversation.Message{
//	    {Role: conversation.RoleSystem, Content: "You are helpful."},
//	    {Role: conversation.RoleUser, Content: "Hi!"},
//	}
package conversation

import (
	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// Role identifies the author of a conversation message.
type Role = conversation.Role

// Message roles.
const (
	RoleSystem    = conversation.RoleSystem
	RoleUser      = conversation.RoleUser
	RoleAssistant = conversation.RoleAssistant
	RoleTool      = conversation.RoleTool
)

// Message is one turn of a conversation.
type Message = conversation.Message

// ToolCall is a function invocation requested by an assistant turn.
type ToolCall = conversation.ToolCall

// ToolSpec is an opaque JSON description of a callable tool.
type ToolSpec = conversation.ToolSpec

// Span is a half-open byte range marking a generation target.
type Span = conversation.Span

// Rendered is rendered conversation text plus its generation spans.
type Rendered = conversation.Rendered

// RenderOptions carries the per-render flags.
type RenderOptions = conversation.RenderOptions

// Renderer turns a conversation into text plus generation spans.
type Renderer = conversation.Renderer
