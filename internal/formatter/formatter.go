package formatter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedRole reports a message whose role the template has no
// formatter for.
var ErrUnsupportedRole = errors.New("unsupported role")

// ComponentKind tags the variants of a formatter component.
type ComponentKind int

const (
	// KindLiteral is fixed text emitted verbatim.
	KindLiteral ComponentKind = iota
	// KindPlaceholder is the single slot the message content fills.
	KindPlaceholder
	// KindSpecialToken renders the symbolic text form of a special token,
	// e.g. "<|im_end|>"; no live tokenizer vocabulary is needed here.
	KindSpecialToken
)

// Component is one element of a formatter. Components are immutable and
// shared read-only across renders.
type Component struct {
	Kind ComponentKind
	Text string // literal text, placeholder field name, or token tag
}

func Literal(text string) Component      { return Component{Kind: KindLiteral, Text: text} }
func Placeholder(field string) Component { return Component{Kind: KindPlaceholder, Text: field} }
func SpecialToken(tag string) Component  { return Component{Kind: KindSpecialToken, Text: tag} }

// StringFormatter renders one message by substituting its content into the
// single placeholder and concatenating all components in order.
type StringFormatter struct {
	components []Component
}

// NewStringFormatter builds a formatter from components. Exactly one
// placeholder is required; literals and special tokens may surround it
// freely.
func NewStringFormatter(components ...Component) (StringFormatter, error) {
	placeholders := 0
	for _, c := range components {
		if c.Kind == KindPlaceholder {
			placeholders++
		}
	}
	if placeholders != 1 {
		return StringFormatter{}, fmt.Errorf("formatter needs exactly one placeholder, got %d", placeholders)
	}
	return StringFormatter{components: components}, nil
}

// MustStringFormatter is NewStringFormatter for static template tables; it
// panics on error.
func MustStringFormatter(components ...Component) StringFormatter {
	f, err := NewStringFormatter(components...)
	if err != nil {
		panic(err)
	}
	return f
}

// Format substitutes content into the placeholder slot.
func (f StringFormatter) Format(content string) string {
	var sb strings.Builder
	for _, c := range f.components {
		if c.Kind == KindPlaceholder {
			sb.WriteString(content)
		} else {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}
