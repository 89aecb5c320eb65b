package encoder

import "sync"

// WordTokenizer is a deterministic offline tokenizer for tests, examples,
// and debugging label masks. Each maximal run of non-whitespace characters
// and each single whitespace character becomes one token, so offsets always
// tile the input. Ids are assigned in first-seen order.
//
// It is not a real model vocabulary; production encoding goes through
// TikTokenOffsets.
type WordTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int32
}

// NewWordTokenizer returns a tokenizer with an empty vocabulary.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{vocab: map[string]int32{}}
}

// EncodeWithOffsets implements OffsetTokenizer.
func (w *WordTokenizer) EncodeWithOffsets(text string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(text) {
		start := i
		if isWordSpace(text[i]) {
			i++
		} else {
			for i < len(text) && !isWordSpace(text[i]) {
				i++
			}
		}
		tokens = append(tokens, Token{
			ID:    w.id(text[start:i]),
			Start: start,
			End:   i,
		})
	}
	return tokens, nil
}

func (w *WordTokenizer) id(piece string) int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.vocab[piece]; ok {
		return id
	}
	id := int32(len(w.vocab))
	w.vocab[piece] = id
	return id
}

func isWordSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
