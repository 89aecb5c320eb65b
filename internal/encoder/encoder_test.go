package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// fixedTokenizer returns a preset token list regardless of input; tests use
// it to pin exact boundary layouts.
type fixedTokenizer struct {
	tokens []Token
}

func (f *fixedTokenizer) EncodeWithOffsets(string) ([]Token, error) {
	return f.tokens, nil
}

func TestWordTokenizer_TilesInput(t *testing.T) {
	tok := NewWordTokenizer()
	text := "hello  world\nbye"
	tokens, err := tok.EncodeWithOffsets(text)
	require.NoError(t, err)

	at := 0
	var rebuilt strings.Builder
	for _, tk := range tokens {
		assert.Equal(t, at, tk.Start)
		at = tk.End
		rebuilt.WriteString(text[tk.Start:tk.End])
	}
	assert.Equal(t, len(text), at)
	assert.Equal(t, text, rebuilt.String())
}

func TestWordTokenizer_StableIDs(t *testing.T) {
	tok := NewWordTokenizer()
	first, err := tok.EncodeWithOffsets("a b a")
	require.NoError(t, err)
	second, err := tok.EncodeWithOffsets("a b a")
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	// Same word, same id.
	assert.Equal(t, first[0].ID, first[4].ID)
	assert.NotEqual(t, first[0].ID, first[2].ID)
}

func TestEncode_MasksOutsideSpans(t *testing.T) {
	//        0123456789...
	text := "user hi bot yes sir"
	// Span covers "yes sir".
	r := conversation.Rendered{
		Text:  text,
		Spans: []conversation.Span{{Start: 12, End: 19}},
	}
	enc, err := Encode(r, NewWordTokenizer())
	require.NoError(t, err)

	// Tokens: "user", " ", "hi", " ", "bot", " ", "yes", " ", "sir".
	require.Len(t, enc.IDs, 9)
	require.Len(t, enc.Labels, 9)
	for i := 0; i < 6; i++ {
		assert.Equal(t, IgnoreIndex, enc.Labels[i], "token %d should be masked", i)
	}
	for i := 6; i < 9; i++ {
		assert.Equal(t, enc.IDs[i], enc.Labels[i], "token %d should keep its id", i)
	}
}

func TestEncode_NoSpansMasksEverything(t *testing.T) {
	r := conversation.Rendered{Text: "all prompt text"}
	enc, err := Encode(r, NewWordTokenizer())
	require.NoError(t, err)
	for _, l := range enc.Labels {
		assert.Equal(t, IgnoreIndex, l)
	}
}

func TestEncode_BoundaryStraddleCountsAsInside(t *testing.T) {
	// Span [4,8) cuts through tokens [2,6) and [6,10).
	tok := &fixedTokenizer{tokens: []Token{
		{ID: 1, Start: 0, End: 2},
		{ID: 2, Start: 2, End: 6},
		{ID: 3, Start: 6, End: 10},
		{ID: 4, Start: 10, End: 12},
	}}
	r := conversation.Rendered{
		Text:  "abcdefghijkl",
		Spans: []conversation.Span{{Start: 4, End: 8}},
	}
	enc, err := Encode(r, tok)
	require.NoError(t, err)
	assert.Equal(t, []int32{IgnoreIndex, 2, 3, IgnoreIndex}, enc.Labels)
}

func TestEncode_MultipleSpans(t *testing.T) {
	tok := &fixedTokenizer{tokens: []Token{
		{ID: 1, Start: 0, End: 2},
		{ID: 2, Start: 2, End: 4},
		{ID: 3, Start: 4, End: 6},
		{ID: 4, Start: 6, End: 8},
	}}
	r := conversation.Rendered{
		Text: "abcdefgh",
		Spans: []conversation.Span{
			{Start: 0, End: 2},
			{Start: 4, End: 6},
		},
	}
	enc, err := Encode(r, tok)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, IgnoreIndex, 3, IgnoreIndex}, enc.Labels)
}

func TestEncode_OffsetMismatch(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
	}{
		{
			name: "gap between tokens",
			tokens: []Token{
				{ID: 1, Start: 0, End: 2},
				{ID: 2, Start: 3, End: 5},
			},
		},
		{
			name: "short coverage",
			tokens: []Token{
				{ID: 1, Start: 0, End: 2},
			},
		},
		{
			name: "nonzero first start",
			tokens: []Token{
				{ID: 1, Start: 1, End: 5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := conversation.Rendered{Text: "abcde"}
			_, err := Encode(r, &fixedTokenizer{tokens: tt.tokens})
			assert.ErrorIs(t, err, ErrOffsetMismatch)
		})
	}
}

func TestEncode_EmptyText(t *testing.T) {
	enc, err := Encode(conversation.Rendered{}, NewWordTokenizer())
	require.NoError(t, err)
	assert.Empty(t, enc.IDs)
	assert.Empty(t, enc.Labels)
}

func TestEncodeBatch_MatchesSequential(t *testing.T) {
	tok := NewWordTokenizer()
	rs := make([]conversation.Rendered, 20)
	for i := range rs {
		text := strings.Repeat("prompt text ", i+1) + "reply"
		rs[i] = conversation.Rendered{
			Text:  text,
			Spans: []conversation.Span{{Start: len(text) - 5, End: len(text)}},
		}
	}
	// Warm the vocabulary so ids do not depend on scheduling order.
	for _, r := range rs {
		_, err := tok.EncodeWithOffsets(r.Text)
		require.NoError(t, err)
	}

	batch, err := EncodeBatch(rs, tok)
	require.NoError(t, err)
	require.Len(t, batch, len(rs))

	for i, r := range rs {
		want, err := Encode(r, tok)
		require.NoError(t, err)
		assert.Equal(t, want, batch[i], "conversation %d", i)
	}
}

func TestEncodeBatch_ReportsErrorIndex(t *testing.T) {
	bad := &fixedTokenizer{tokens: []Token{{ID: 1, Start: 0, End: 1}}}
	rs := []conversation.Rendered{
		{Text: "a"},
		{Text: "toolong"},
	}
	_, err := EncodeBatch(rs, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffsetMismatch)
	assert.Contains(t, err.Error(), "conversation 1")
}

func TestTikTokenOffsets(t *testing.T) {
	tok, err := NewTikTokenOffsets("cl100k_base")
	if err != nil {
		t.Skipf("cl100k_base unavailable: %v", err)
	}
	assert.Equal(t, "cl100k_base", tok.Name())

	text := "<|im_start|>user\nHello world!<|im_end|>\n"
	tokens, err := tok.EncodeWithOffsets(text)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)

	at := 0
	for _, tk := range tokens {
		assert.Equal(t, at, tk.Start)
		at = tk.End
	}
	assert.Equal(t, len(text), at)
}
