package template

import (
	"fmt"
	"strings"
)

// segment kinds produced by the source scanner.
const (
	segText = iota
	segOutput
	segTag
)

// segment is one slice of template source: literal text, an output
// expression `{{ ... }}`, or a control tag `{% ... %}`.
type segment struct {
	kind      int
	pos       int    // byte offset of the segment in the source
	text      string // literal text, or the delimiter-stripped body
	trimLeft  bool   // `{{-` / `{%-`
	trimRight bool   // `-}}` / `-%}`
}

// scanSegments splits template source into literal text and tag bodies,
// applying `-` whitespace control to the adjacent literals: each marked side
// loses contiguous horizontal whitespace, at most one newline, then
// horizontal whitespace again.
func scanSegments(name, src string) ([]segment, error) {
	var segs []segment
	pos := 0
	trimPending := false // previous tag requested right-trim

	flushText := func(end int, trimRight bool) {
		text := src[pos:end]
		if trimPending {
			text = trimLeadingSpace(text)
		}
		if trimRight {
			text = trimTrailingSpace(text)
		}
		if text != "" {
			segs = append(segs, segment{kind: segText, pos: pos, text: text})
		}
	}

	for {
		rel := strings.IndexAny(src[pos:], "{")
		open := -1
		for rel >= 0 {
			at := pos + rel
			if at+1 < len(src) && (src[at+1] == '{' || src[at+1] == '%') {
				open = at
				break
			}
			next := strings.IndexAny(src[at+1:], "{")
			if next < 0 {
				break
			}
			rel += 1 + next
		}
		if open < 0 {
			flushText(len(src), false)
			return segs, nil
		}

		kind := segOutput
		closer := "}}"
		if src[open+1] == '%' {
			kind = segTag
			closer = "%}"
		}

		body, end, err := scanTagBody(name, src, open+2, closer)
		if err != nil {
			return nil, err
		}

		trimL := strings.HasPrefix(body, "-")
		trimR := strings.HasSuffix(body, "-") && len(strings.TrimSpace(body)) > 1
		inner := body
		if trimL {
			inner = inner[1:]
		}
		if trimR {
			inner = inner[:len(inner)-1]
		}

		flushText(open, trimL)
		segs = append(segs, segment{
			kind:      kind,
			pos:       open,
			text:      strings.TrimSpace(inner),
			trimLeft:  trimL,
			trimRight: trimR,
		})
		trimPending = trimR
		pos = end
	}
}

// scanTagBody finds the closing delimiter starting at from, skipping over
// string literals so quoted `}}` or `%}` cannot terminate the tag early.
// Returns the raw body and the offset just past the closer.
func scanTagBody(name, src string, from int, closer string) (string, int, error) {
	i := from
	for i < len(src) {
		c := src[i]
		switch c {
		case '\'', '"':
			j := i + 1
			for j < len(src) {
				if src[j] == '\\' {
					j += 2
					continue
				}
				if src[j] == c {
					break
				}
				j++
			}
			if j >= len(src) {
				return "", 0, &ParseError{Name: name, Pos: i, Msg: "unterminated string literal"}
			}
			i = j + 1
		default:
			if strings.HasPrefix(src[i:], closer) {
				return src[from:i], i + len(closer), nil
			}
			i++
		}
	}
	return "", 0, &ParseError{Name: name, Pos: from - 2, Msg: fmt.Sprintf("unterminated tag, expected %q", closer)}
}

func trimTrailingSpace(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t') {
		i--
	}
	if i > 0 && s[i-1] == '\n' {
		i--
		if i > 0 && s[i-1] == '\r' {
			i--
		}
	}
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t') {
		i--
	}
	return s[:i]
}

func trimLeadingSpace(s string) string {
	j := 0
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j < len(s) && s[j] == '\r' {
		j++
	}
	if j < len(s) && s[j] == '\n' {
		j++
	}
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	return s[j:]
}

// token kinds produced by the expression lexer.
const (
	tokEOF = iota
	tokIdent
	tokString
	tokInt
	tokOp
)

type token struct {
	kind int
	val  string
	pos  int
}

// lexer tokenizes the body of a single tag or output expression.
type lexer struct {
	name string
	src  string
	base int // offset of src within the template source
	pos  int
	peek *token
}

func newLexer(name, src string, base int) *lexer {
	return &lexer{name: name, src: src, base: base}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &ParseError{Name: l.name, Pos: l.base + pos, Msg: fmt.Sprintf(format, args...)}
}

// peekToken returns the next token without consuming it.
func (l *lexer) peekToken() (token, error) {
	if l.peek == nil {
		t, err := l.lex()
		if err != nil {
			return token{}, err
		}
		l.peek = &t
	}
	return *l.peek, nil
}

// next consumes and returns the next token.
func (l *lexer) next() (token, error) {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t, nil
	}
	return l.lex()
}

func (l *lexer) lex() (token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.base + l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, val: l.src[start:l.pos], pos: l.base + start}, nil

	case c >= '0' && c <= '9':
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
		return token{kind: tokInt, val: l.src[start:l.pos], pos: l.base + start}, nil

	case c == '\'' || c == '"':
		val, err := l.lexString(c)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, val: val, pos: l.base + start}, nil

	case c == '=' || c == '!' || c == '<' || c == '>':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.pos++
		} else if c == '!' {
			return token{}, l.errorf(start, "unexpected character %q", "!")
		}
		return token{kind: tokOp, val: l.src[start:l.pos], pos: l.base + start}, nil

	case strings.ContainsRune(".,[]()|:+-", rune(c)):
		l.pos++
		return token{kind: tokOp, val: string(c), pos: l.base + start}, nil
	}
	return token{}, l.errorf(start, "unexpected character %q", string(c))
}

func (l *lexer) lexString(quote byte) (string, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return sb.String(), nil
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return "", l.errorf(l.pos, "unterminated string literal")
			}
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '\'':
				sb.WriteByte('\'')
			case '"':
				sb.WriteByte('"')
			default:
				// Unknown escapes keep the backslash, matching the
				// literal-through behavior the builtin templates rely on.
				sb.WriteByte('\\')
				sb.WriteByte(l.src[l.pos])
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return "", l.errorf(l.pos, "unterminated string literal")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
