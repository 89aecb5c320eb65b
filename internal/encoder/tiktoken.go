package encoder

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TikTokenOffsets adapts the pkoukk/tiktoken-go BPE tokenizers to the
// OffsetTokenizer capability. BPE tokens decode to exact byte sequences, so
// byte ranges fall out of per-token decode lengths.
type TikTokenOffsets struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikTokenOffsets creates an adapter for a named encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikTokenOffsets(encodingName string) (*TikTokenOffsets, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikTokenOffsets{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenOffsetsForModel creates an adapter for a specific model name,
// e.g. "gpt-4" or "gpt-3.5-turbo".
func NewTikTokenOffsetsForModel(modelName string) (*TikTokenOffsets, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikTokenOffsets{encoding: encoding, name: modelName}, nil
}

// Name returns the encoding or model name the adapter was built from.
func (t *TikTokenOffsets) Name() string { return t.name }

// EncodeWithOffsets tokenizes text and reconstructs each token's byte range
// from its decoded length.
func (t *TikTokenOffsets) EncodeWithOffsets(text string) ([]Token, error) {
	ids := t.encoding.Encode(text, nil, nil)

	tokens := make([]Token, len(ids))
	at := 0
	for i, id := range ids {
		piece := t.encoding.Decode([]int{id})
		end := at + len(piece)
		tokens[i] = Token{
			ID:    int32(id), //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
			Start: at,
			End:   end,
		}
		at = end
	}
	if at != len(text) {
		return nil, fmt.Errorf("%w: decoded %d bytes for %d input bytes", ErrOffsetMismatch, at, len(text))
	}
	return tokens, nil
}
