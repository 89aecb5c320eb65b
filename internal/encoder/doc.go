// Package encoder turns rendered conversations into token ids and loss
// labels.
//
// A tokenizer with byte offsets maps the rendered text to tokens; labels
// copy the token id inside generation spans and hold IgnoreIndex
// everywhere else, so a training loop can feed them straight into its loss.
//
// Tokenizers:
//   - TikTokenOffsets: OpenAI BPE encodings via pkoukk/tiktoken-go
//   - WordTokenizer: deterministic offline tokenizer for tests and demos
package encoder
