// Package template implements the embedded template language used to
// express model-family-specific chat formats.
//
// The language is a small expression-and-control-flow DSL:
//   - `{{ expr }}` outputs a value; `{% tag %}` is a control tag
//   - tags: if/elif/else, for, set, generation
//   - a `-` on either delimiter side trims adjacent whitespace
//   - expressions: attribute access, indexing and slices, string methods,
//     the tojson and length filters, and `is` tests
//
// The `generation` tag is the reason this engine exists: its body marks the
// byte span of output a model is expected to produce, which the encoder
// turns into a training loss mask.
//
// Parsing happens once per template; the resulting AST is immutable and
// shared across concurrent renders.
package template
