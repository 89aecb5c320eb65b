package encoder

import (
	"errors"
	"fmt"

	"github.com/chatspan-ml/chatspan/internal/conversation"
	"github.com/chatspan-ml/chatspan/internal/parallel"
)

// IgnoreIndex is the label for tokens outside every generation span. It
// matches the ignore sentinel of common cross-entropy implementations.
const IgnoreIndex int32 = -100

// ErrOffsetMismatch reports a tokenizer whose byte ranges do not tile the
// input text. Silently mislabeling tokens would corrupt training data, so
// this is always fatal.
var ErrOffsetMismatch = errors.New("token offsets do not cover the input text")

// Token is one token id with the byte range of input text it covers.
type Token struct {
	ID    int32
	Start int
	End   int
}

// OffsetTokenizer converts text into tokens with byte offsets. Ranges must
// be contiguous: Start of the first token is 0, each Start equals the
// previous End, and the last End is len(text).
type OffsetTokenizer interface {
	EncodeWithOffsets(text string) ([]Token, error)
}

// Encoding is the final training input: token ids and a parallel label
// sequence where only generation tokens keep their id.
type Encoding struct {
	IDs    []int32
	Labels []int32
}

// Encode tokenizes rendered text and masks labels outside the generation
// spans. A token straddling a span boundary counts as inside: losing
// supervision silently is worse than one token of boundary fuzz.
func Encode(r conversation.Rendered, tok OffsetTokenizer) (Encoding, error) {
	tokens, err := tok.EncodeWithOffsets(r.Text)
	if err != nil {
		return Encoding{}, err
	}
	if err := checkCoverage(tokens, len(r.Text)); err != nil {
		return Encoding{}, err
	}

	enc := Encoding{
		IDs:    make([]int32, len(tokens)),
		Labels: make([]int32, len(tokens)),
	}
	spans := r.Spans
	si := 0
	for i, t := range tokens {
		enc.IDs[i] = t.ID
		enc.Labels[i] = IgnoreIndex

		// Spans and tokens are both ordered; advance past spans that end
		// before this token.
		for si < len(spans) && spans[si].End <= t.Start {
			si++
		}
		if si < len(spans) && t.Start < spans[si].End && spans[si].Start < t.End {
			enc.Labels[i] = t.ID
		}
	}
	return enc, nil
}

// EncodeBatch encodes many rendered conversations concurrently. Rendering
// and encoding are pure, so items are independent; the first error wins.
func EncodeBatch(rs []conversation.Rendered, tok OffsetTokenizer) ([]Encoding, error) {
	out := make([]Encoding, len(rs))
	errs := make([]error, len(rs))

	parallel.ForEach(len(rs), func(i int) {
		out[i], errs[i] = Encode(rs[i], tok)
	}, parallel.DefaultConfig())

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("encoding conversation %d: %w", i, err)
		}
	}
	return out, nil
}

func checkCoverage(tokens []Token, length int) error {
	at := 0
	for i, t := range tokens {
		if t.Start != at || t.End < t.Start {
			return fmt.Errorf("%w: token %d covers [%d,%d), expected start %d", ErrOffsetMismatch, i, t.Start, t.End, at)
		}
		at = t.End
	}
	if at != length {
		return fmt.Errorf("%w: tokens cover %d of %d bytes", ErrOffsetMismatch, at, length)
	}
	return nil
}
