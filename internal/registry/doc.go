// Package registry maps template names to renderers.
//
// The default registry is populated once at process start with the built-in
// set: declarative formatters for formats without control flow (qwen2,
// qwen2_for_tool, yi1_5) and parsed template-language sources for formats
// with tool calling and reasoning (chatml, the qwen2_5 family, qwen3).
// Parsing happens at registration, so the shared AST is immutable by the
// time any render can see it.
package registry
