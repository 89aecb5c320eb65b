// Package encoder turns rendered conversations into token ids and loss
// labels for a training loop.
//
// Example usage:
//
//	tok, err := encoder.NewTikTokenOffsets("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc, err := encoder.Encode(rendered, tok)
//	// enc.IDs and enc.Labels feed the loss computation directly.
package encoder

import (
	"github.com/chatspan-ml/chatspan/conversation"
	"github.com/chatspan-ml/chatspan/internal/encoder"
)

// IgnoreIndex is the label for tokens outside every generation span.
const IgnoreIndex = encoder.IgnoreIndex

// ErrOffsetMismatch reports token byte ranges that do not tile the input.
var ErrOffsetMismatch = encoder.ErrOffsetMismatch

// Token is a token id with the byte range it covers.
type Token = encoder.Token

// OffsetTokenizer converts text into tokens with byte offsets.
type OffsetTokenizer = encoder.OffsetTokenizer

// Encoding is the final training input: ids plus masked labels.
type Encoding = encoder.Encoding

// Encode tokenizes rendered text and masks labels outside the generation
// spans.
func Encode(r conversation.Rendered, tok OffsetTokenizer) (Encoding, error) {
	return encoder.Encode(r, tok)
}

// EncodeBatch encodes many rendered conversations concurrently.
func EncodeBatch(rs []conversation.Rendered, tok OffsetTokenizer) ([]Encoding, error) {
	return encoder.EncodeBatch(rs, tok)
}

// TikTokenOffsets adapts OpenAI BPE encodings to OffsetTokenizer.
type TikTokenOffsets = encoder.TikTokenOffsets

// NewTikTokenOffsets creates an adapter for a named encoding, e.g.
// "cl100k_base".
func NewTikTokenOffsets(encodingName string) (*TikTokenOffsets, error) {
	return encoder.NewTikTokenOffsets(encodingName)
}

// NewTikTokenOffsetsForModel creates an adapter for a model name, e.g.
// "gpt-4".
func NewTikTokenOffsetsForModel(modelName string) (*TikTokenOffsets, error) {
	return encoder.NewTikTokenOffsetsForModel(modelName)
}

// WordTokenizer is a deterministic offline tokenizer for tests and demos.
type WordTokenizer = encoder.WordTokenizer

// NewWordTokenizer returns a WordTokenizer with an empty vocabulary.
func NewWordTokenizer() *WordTokenizer { return encoder.NewWordTokenizer() }
