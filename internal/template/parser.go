package template

import (
	"strconv"
	"strings"
)

// parser builds the AST from scanned segments.
type parser struct {
	name string
	segs []segment
	idx  int
}

// Parse compiles template source into an immutable Template. The name is
// used in error messages and as the registry key.
func Parse(name, src string) (*Template, error) {
	segs, err := scanSegments(name, src)
	if err != nil {
		return nil, err
	}
	p := &parser{name: name, segs: segs}
	nodes, term, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}
	if term != "" {
		return nil, &ParseError{Name: name, Pos: p.termPos(), Token: term, Msg: "unexpected closing tag"}
	}
	return &Template{name: name, source: src, nodes: nodes}, nil
}

// MustParse is Parse for static template sources; it panics on error.
func MustParse(name, src string) *Template {
	t, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return t
}

func (p *parser) termPos() int {
	if p.idx-1 >= 0 && p.idx-1 < len(p.segs) {
		return p.segs[p.idx-1].pos
	}
	return 0
}

// parseNodes consumes segments until EOF or until a tag named in until is
// seen; that tag's name is returned as term, with the tag consumed.
func (p *parser) parseNodes(until []string) ([]Node, string, error) {
	var nodes []Node
	for p.idx < len(p.segs) {
		seg := p.segs[p.idx]
		p.idx++

		switch seg.kind {
		case segText:
			nodes = append(nodes, &TextNode{Pos: seg.pos, Text: seg.text})

		case segOutput:
			lx := newLexer(p.name, seg.text, seg.pos)
			expr, err := parseExpr(lx)
			if err != nil {
				return nil, "", err
			}
			if err := expectEOF(lx); err != nil {
				return nil, "", err
			}
			nodes = append(nodes, &OutputNode{Pos: seg.pos, Expr: expr})

		case segTag:
			tag, rest, _ := strings.Cut(seg.text, " ")
			for _, u := range until {
				if tag == u {
					return nodes, tag, nil
				}
			}
			node, err := p.parseTag(seg, tag, strings.TrimSpace(rest))
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node)
		}
	}
	if len(until) > 0 {
		return nil, "", &ParseError{Name: p.name, Pos: p.termPos(), Msg: "unexpected end of template, expected " + strings.Join(until, " or ")}
	}
	return nodes, "", nil
}

func (p *parser) parseTag(seg segment, tag, rest string) (Node, error) {
	switch tag {
	case "if":
		return p.parseIf(seg, rest)
	case "for":
		return p.parseFor(seg, rest)
	case "set":
		return p.parseSet(seg, rest)
	case "generation":
		if rest != "" {
			return nil, &ParseError{Name: p.name, Pos: seg.pos, Token: rest, Msg: "generation tag takes no arguments"}
		}
		body, _, err := p.parseNodes([]string{"endgeneration"})
		if err != nil {
			return nil, err
		}
		return &GenerationNode{Pos: seg.pos, Body: body}, nil
	case "elif", "else", "endif", "endfor", "endgeneration":
		return nil, &ParseError{Name: p.name, Pos: seg.pos, Token: tag, Msg: "closing tag without a matching opener"}
	default:
		return nil, &ParseError{Name: p.name, Pos: seg.pos, Token: tag, Msg: "unknown tag"}
	}
}

func (p *parser) parseIf(seg segment, rest string) (Node, error) {
	cond, err := p.parseTagExpr(seg, rest)
	if err != nil {
		return nil, err
	}
	node := &IfNode{Pos: seg.pos}

	for {
		body, term, err := p.parseNodes([]string{"elif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, Branch{Cond: cond, Body: body})

		switch term {
		case "endif":
			return node, nil
		case "else":
			elseBody, _, err := p.parseNodes([]string{"endif"})
			if err != nil {
				return nil, err
			}
			node.Else = elseBody
			return node, nil
		case "elif":
			elifSeg := p.segs[p.idx-1]
			_, elifRest, _ := strings.Cut(elifSeg.text, " ")
			cond, err = p.parseTagExpr(elifSeg, strings.TrimSpace(elifRest))
			if err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) parseFor(seg segment, rest string) (Node, error) {
	lx := newLexer(p.name, rest, seg.pos)
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent {
		return nil, &ParseError{Name: p.name, Pos: tok.pos, Token: tok.val, Msg: "expected loop variable name"}
	}
	loopVar := tok.val

	tok, err = lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent || tok.val != "in" {
		return nil, &ParseError{Name: p.name, Pos: tok.pos, Token: tok.val, Msg: "expected 'in' in for tag"}
	}

	seq, err := parseExpr(lx)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(lx); err != nil {
		return nil, err
	}

	body, _, err := p.parseNodes([]string{"endfor"})
	if err != nil {
		return nil, err
	}
	return &ForNode{Pos: seg.pos, Var: loopVar, Seq: seq, Body: body}, nil
}

func (p *parser) parseSet(seg segment, rest string) (Node, error) {
	lx := newLexer(p.name, rest, seg.pos)
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent {
		return nil, &ParseError{Name: p.name, Pos: tok.pos, Token: tok.val, Msg: "expected assignment target"}
	}
	node := &SetNode{Pos: seg.pos, Target: tok.val}

	tok, err = lx.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokOp && tok.val == "." {
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokIdent {
			return nil, &ParseError{Name: p.name, Pos: tok.pos, Token: tok.val, Msg: "expected namespace field name"}
		}
		node.Field = tok.val
		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
	}
	if tok.kind != tokOp || tok.val != "=" {
		return nil, &ParseError{Name: p.name, Pos: tok.pos, Token: tok.val, Msg: "expected '=' in set tag"}
	}

	node.Expr, err = parseExpr(lx)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(lx); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) parseTagExpr(seg segment, rest string) (Expr, error) {
	lx := newLexer(p.name, rest, seg.pos)
	expr, err := parseExpr(lx)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(lx); err != nil {
		return nil, err
	}
	return expr, nil
}

func expectEOF(lx *lexer) error {
	tok, err := lx.next()
	if err != nil {
		return err
	}
	if tok.kind != tokEOF {
		return &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "unexpected trailing token"}
	}
	return nil
}

// Expression grammar, loosest to tightest:
//
//	or -> and ('or' and)*
//	and -> not ('and' not)*
//	not -> 'not' not | cmp
//	cmp -> add (('=='|'!='|'<'|'<='|'>'|'>='|'in') add | 'is' ['not'] ident)*
//	add -> unary (('+'|'-') unary)*
//	unary -> '-' unary | postfix
//	postfix -> primary ('.'ident | '['...']' | '('args')' | '|' ident)*
//	primary -> literal | ident | '(' or ')'
func parseExpr(lx *lexer) (Expr, error) {
	return parseOr(lx)
}

func parseOr(lx *lexer) (Expr, error) {
	left, err := parseAnd(lx)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokIdent || tok.val != "or" {
			return left, nil
		}
		lx.next() //nolint:errcheck // peeked token
		right, err := parseAnd(lx)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: tok.pos, Op: "or", L: left, R: right}
	}
}

func parseAnd(lx *lexer) (Expr, error) {
	left, err := parseNot(lx)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokIdent || tok.val != "and" {
			return left, nil
		}
		lx.next() //nolint:errcheck // peeked token
		right, err := parseNot(lx)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: tok.pos, Op: "and", L: left, R: right}
	}
}

func parseNot(lx *lexer) (Expr, error) {
	tok, err := lx.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokIdent && tok.val == "not" {
		lx.next() //nolint:errcheck // peeked token
		x, err := parseNot(lx)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: tok.pos, Op: "not", X: x}, nil
	}
	return parseCmp(lx)
}

func parseCmp(lx *lexer) (Expr, error) {
	left, err := parseAdd(lx)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokOp && isCmpOp(tok.val):
			lx.next() //nolint:errcheck // peeked token
			right, err := parseAdd(lx)
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Pos: tok.pos, Op: tok.val, L: left, R: right}

		case tok.kind == tokIdent && tok.val == "in":
			lx.next() //nolint:errcheck // peeked token
			right, err := parseAdd(lx)
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Pos: tok.pos, Op: "in", L: left, R: right}

		case tok.kind == tokIdent && tok.val == "is":
			lx.next() //nolint:errcheck // peeked token
			test, err := lx.next()
			if err != nil {
				return nil, err
			}
			negate := false
			if test.kind == tokIdent && test.val == "not" {
				negate = true
				test, err = lx.next()
				if err != nil {
					return nil, err
				}
			}
			if test.kind != tokIdent {
				return nil, &ParseError{Name: lx.name, Pos: test.pos, Token: test.val, Msg: "expected test name after 'is'"}
			}
			switch test.val {
			case "defined", "none", "string", "false", "true":
			default:
				return nil, &ParseError{Name: lx.name, Pos: test.pos, Token: test.val, Msg: "unknown test"}
			}
			left = &TestExpr{Pos: tok.pos, X: left, Test: test.val, Negate: negate}

		default:
			return left, nil
		}
	}
}

func isCmpOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func parseAdd(lx *lexer) (Expr, error) {
	left, err := parseUnary(lx)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokOp || (tok.val != "+" && tok.val != "-") {
			return left, nil
		}
		lx.next() //nolint:errcheck // peeked token
		right, err := parseUnary(lx)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: tok.pos, Op: tok.val, L: left, R: right}
	}
}

func parseUnary(lx *lexer) (Expr, error) {
	tok, err := lx.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokOp && tok.val == "-" {
		lx.next() //nolint:errcheck // peeked token
		x, err := parseUnary(lx)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: tok.pos, Op: "-", X: x}, nil
	}
	return parsePostfix(lx)
}

func parsePostfix(lx *lexer) (Expr, error) {
	expr, err := parsePrimary(lx)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokOp {
			return expr, nil
		}
		switch tok.val {
		case ".":
			lx.next() //nolint:errcheck // peeked token
			name, err := lx.next()
			if err != nil {
				return nil, err
			}
			if name.kind != tokIdent {
				return nil, &ParseError{Name: lx.name, Pos: name.pos, Token: name.val, Msg: "expected attribute name"}
			}
			expr = &AttrExpr{Pos: tok.pos, X: expr, Name: name.val}

		case "[":
			lx.next() //nolint:errcheck // peeked token
			expr, err = parseSubscript(lx, expr, tok.pos)
			if err != nil {
				return nil, err
			}

		case "(":
			lx.next() //nolint:errcheck // peeked token
			expr, err = parseCall(lx, expr, tok.pos)
			if err != nil {
				return nil, err
			}

		case "|":
			lx.next() //nolint:errcheck // peeked token
			name, err := lx.next()
			if err != nil {
				return nil, err
			}
			if name.kind != tokIdent {
				return nil, &ParseError{Name: lx.name, Pos: name.pos, Token: name.val, Msg: "expected filter name"}
			}
			expr = &FilterExpr{Pos: tok.pos, X: expr, Name: name.val}

		default:
			return expr, nil
		}
	}
}

// parseSubscript handles x[i], x['key'], and x[start:stop:step] after the
// opening bracket has been consumed.
func parseSubscript(lx *lexer, x Expr, pos int) (Expr, error) {
	parts := make([]Expr, 0, 3) // nil entry = omitted slice part
	sliced := false

	tok, err := lx.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokOp && (tok.val == ":" || tok.val == "]") {
		parts = append(parts, nil)
	} else {
		e, err := parseExpr(lx)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokOp {
			return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "expected ':' or ']' in subscript"}
		}
		switch tok.val {
		case "]":
			if !sliced {
				return &IndexExpr{Pos: pos, X: x, Index: parts[0]}, nil
			}
			for len(parts) < 3 {
				parts = append(parts, nil)
			}
			return &SliceExpr{Pos: pos, X: x, Start: parts[0], Stop: parts[1], Step: parts[2]}, nil

		case ":":
			sliced = true
			if len(parts) >= 3 {
				return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: ":", Msg: "too many slice parts"}
			}
			nxt, err := lx.peekToken()
			if err != nil {
				return nil, err
			}
			if nxt.kind == tokOp && (nxt.val == ":" || nxt.val == "]") {
				parts = append(parts, nil)
			} else {
				e, err := parseExpr(lx)
				if err != nil {
					return nil, err
				}
				parts = append(parts, e)
			}

		default:
			return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "expected ':' or ']' in subscript"}
		}
	}
}

// parseCall handles argument lists after the opening paren has been consumed.
func parseCall(lx *lexer, x Expr, pos int) (Expr, error) {
	call := &CallExpr{Pos: pos, X: x}
	tok, err := lx.peekToken()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokOp && tok.val == ")" {
		lx.next() //nolint:errcheck // peeked token
		return call, nil
	}

	for {
		tok, err := lx.peekToken()
		if err != nil {
			return nil, err
		}
		// Keyword argument: ident '=' expr (but not ident '==' ...).
		if tok.kind == tokIdent {
			save := *lx
			lx.next() //nolint:errcheck // peeked token
			eq, err := lx.peekToken()
			if err != nil {
				return nil, err
			}
			if eq.kind == tokOp && eq.val == "=" {
				lx.next() //nolint:errcheck // peeked token
				val, err := parseExpr(lx)
				if err != nil {
					return nil, err
				}
				call.Kwargs = append(call.Kwargs, Kwarg{Name: tok.val, Expr: val})
			} else {
				*lx = save
				arg, err := parseExpr(lx)
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
			}
		} else {
			arg, err := parseExpr(lx)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}

		tok, err = lx.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokOp && tok.val == ")" {
			return call, nil
		}
		if tok.kind != tokOp || tok.val != "," {
			return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "expected ',' or ')' in argument list"}
		}
	}
}

func parsePrimary(lx *lexer) (Expr, error) {
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokString:
		return &StringLit{Pos: tok.pos, Val: tok.val}, nil

	case tokInt:
		n, err := strconv.Atoi(tok.val)
		if err != nil {
			return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "invalid integer literal"}
		}
		return &IntLit{Pos: tok.pos, Val: n}, nil

	case tokIdent:
		switch tok.val {
		case "true":
			return &BoolLit{Pos: tok.pos, Val: true}, nil
		case "false":
			return &BoolLit{Pos: tok.pos, Val: false}, nil
		case "none":
			return &NoneLit{Pos: tok.pos}, nil
		}
		return &VarExpr{Pos: tok.pos, Name: tok.val}, nil

	case tokOp:
		if tok.val == "(" {
			expr, err := parseExpr(lx)
			if err != nil {
				return nil, err
			}
			closing, err := lx.next()
			if err != nil {
				return nil, err
			}
			if closing.kind != tokOp || closing.val != ")" {
				return nil, &ParseError{Name: lx.name, Pos: closing.pos, Token: closing.val, Msg: "expected ')'"}
			}
			return expr, nil
		}
	}
	return nil, &ParseError{Name: lx.name, Pos: tok.pos, Token: tok.val, Msg: "expected expression"}
}
