// Package conversation defines the data model shared by the template engine,
// the declarative formatters, and the encoder.
//
// A conversation is an ordered list of Messages (system, user, assistant,
// tool), optionally accompanied by opaque ToolSpecs. Rendering produces a
// Rendered value: the linear text stream plus the generation Spans that a
// training pipeline unmasks for its loss.
package conversation
